package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// playRecordFieldMap caches JSON tag -> struct field index mappings
var (
	playRecordFieldMap     map[string]int
	playRecordFieldMapOnce sync.Once
)

func getPlayRecordFieldMap() map[string]int {
	playRecordFieldMapOnce.Do(func() {
		t := reflect.TypeOf(PlayRecord{})
		playRecordFieldMap = make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			name := strings.Split(tag, ",")[0]
			playRecordFieldMap[name] = i
		}
	})
	return playRecordFieldMap
}

// UnmarshalJSON accepts both string-encoded and native JSON values.
// Play-by-play exports (CSV converted to JSON) frequently quote every
// number, and use "NA" or "" for missing values.
func (p *PlayRecord) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type Alias PlayRecord
	a := (*Alias)(p)

	// Fast path: standard unmarshal works when all types match natively
	if err := json.Unmarshal(data, a); err == nil {
		return nil
	}

	// Slow path: field-by-field with string-to-native coercion. The failed
	// fast path may have left zero-valued pointers behind; "NA" must stay nil.
	*p = PlayRecord{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	fieldMap := getPlayRecordFieldMap()
	v := reflect.ValueOf(a).Elem()

	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		// Value is a JSON string but target is numeric/bool
		if len(rawVal) > 1 && rawVal[0] == '"' {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" || strings.EqualFold(s, "NA") {
				continue
			}
			coerceStringToField(fv, s)
		}
	}

	return nil
}

// coerceStringToField converts a string value to the field's native type.
// It reports whether the value could be converted.
func coerceStringToField(fv reflect.Value, s string) bool {
	if fv.Kind() == reflect.Ptr {
		elem := reflect.New(fv.Type().Elem())
		if !coerceStringToField(elem.Elem(), s) {
			return false
		}
		fv.Set(elem)
		return true
	}

	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetFloat(n)
			return true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// ParseFloat handles "3.0" → truncate to int
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetInt(int64(n))
			return true
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			fv.SetBool(b)
			return true
		}
	case reflect.String:
		fv.SetString(s)
		return true
	}
	return false
}
