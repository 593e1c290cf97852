package services

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// FileParseService turns uploaded custom data files into JSON-compatible
// values a session can carry.
type FileParseService struct{}

func NewFileParseService() *FileParseService {
	return &FileParseService{}
}

func (s *FileParseService) Parse(filename string, data []byte) (interface{}, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		return s.parseJSON(data)
	case ".csv":
		return s.parseCSV(data)
	default:
		return nil, &InvalidConfigurationError{Message: fmt.Sprintf("unsupported file type: %s", ext)}
	}
}

func (s *FileParseService) parseJSON(data []byte) (interface{}, error) {
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &InvalidConfigurationError{Message: "uploaded file is not valid JSON"}
	}
	return parsed, nil
}

// parseCSV splits a header row plus comma-separated data rows into a list of
// field-name-to-string records. Rows whose field count does not match the
// header are silently dropped.
func (s *FileParseService) parseCSV(data []byte) ([]map[string]string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var header []string
	for len(lines) > 0 {
		if strings.TrimSpace(lines[0]) != "" {
			header = strings.Split(lines[0], ",")
			break
		}
		lines = lines[1:]
	}
	if header == nil {
		return nil, &InvalidConfigurationError{Message: "csv file is empty"}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != len(header) {
			continue
		}
		record := make(map[string]string, len(header))
		for i, name := range header {
			record[name] = strings.TrimSpace(fields[i])
		}
		records = append(records, record)
	}

	return records, nil
}
