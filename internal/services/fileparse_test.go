package services

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCSVDropsShortRows(t *testing.T) {
	svc := NewFileParseService()

	parsed, err := svc.Parse("data.csv", []byte("a,b\n1,2\n3"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	records, ok := parsed.([]map[string]string)
	if !ok {
		t.Fatalf("Expected []map[string]string, got %T", parsed)
	}

	expected := []map[string]string{{"a": "1", "b": "2"}}
	if !reflect.DeepEqual(records, expected) {
		t.Errorf("Expected %v, got %v", expected, records)
	}
}

func TestParseCSV(t *testing.T) {
	svc := NewFileParseService()

	tests := []struct {
		name     string
		input    string
		expected []map[string]string
	}{
		{
			"simple rows",
			"name,value\nproton,1\nelectron,2",
			[]map[string]string{{"name": "proton", "value": "1"}, {"name": "electron", "value": "2"}},
		},
		{
			"crlf line endings",
			"a,b\r\n1,2\r\n",
			[]map[string]string{{"a": "1", "b": "2"}},
		},
		{
			"extra fields dropped",
			"a,b\n1,2,3\n4,5",
			[]map[string]string{{"a": "4", "b": "5"}},
		},
		{
			"blank lines skipped",
			"a,b\n\n1,2\n\n",
			[]map[string]string{{"a": "1", "b": "2"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := svc.Parse("data.csv", []byte(tc.input))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !reflect.DeepEqual(parsed, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, parsed)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	svc := NewFileParseService()

	parsed, err := svc.Parse("data.json", []byte(`{"field": [1, 2, 3]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object, got %T", parsed)
	}
	if _, ok := obj["field"]; !ok {
		t.Error("Expected 'field' key in parsed JSON")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	svc := NewFileParseService()

	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"invalid json", "data.json", `{"broken": `},
		{"unsupported extension", "data.xml", "<xml/>"},
		{"empty csv", "data.csv", "\n\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Parse(tc.filename, []byte(tc.data))

			var invalid *InvalidConfigurationError
			if !errors.As(err, &invalid) {
				t.Fatalf("Expected InvalidConfigurationError, got %v", err)
			}
		})
	}
}
