package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON column helpers. GORM stores these as MySQL json columns; the typed
// wrappers keep the engine code free of raw json.RawMessage handling.

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dest interface{}, value interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

type IntList []int

func (l IntList) Value() (driver.Value, error) { return jsonValue([]int(l)) }
func (l *IntList) Scan(value interface{}) error {
	return jsonScan((*[]int)(l), value)
}

type StringList []string

func (l StringList) Value() (driver.Value, error) { return jsonValue([]string(l)) }
func (l *StringList) Scan(value interface{}) error {
	return jsonScan((*[]string)(l), value)
}

type BreakdownEntry struct {
	Name               string  `json:"name"`
	DomainName         string  `json:"domainName,omitempty"`
	Correct            int     `json:"correct"`
	Total              int     `json:"total"`
	Percentage         float64 `json:"percentage"`
	AvgTimePerQuestion float64 `json:"avgTimePerQuestion"`
	Weight             float64 `json:"weight,omitempty"`
}

type DomainBreakdown map[string]BreakdownEntry

func (b DomainBreakdown) Value() (driver.Value, error) {
	return jsonValue(map[string]BreakdownEntry(b))
}
func (b *DomainBreakdown) Scan(value interface{}) error {
	return jsonScan((*map[string]BreakdownEntry)(b), value)
}

type TaskBreakdown map[uint]BreakdownEntry

func (b TaskBreakdown) Value() (driver.Value, error) {
	return jsonValue(map[uint]BreakdownEntry(b))
}
func (b *TaskBreakdown) Scan(value interface{}) error {
	return jsonScan((*map[uint]BreakdownEntry)(b), value)
}

type PatternEpisode struct {
	Pattern            BehaviorPattern `json:"pattern"`
	StartQuestionIndex int             `json:"startQuestionIndex"`
	EndQuestionIndex   int             `json:"endQuestionIndex"`
	DurationSeconds    int             `json:"durationSeconds"`
}

type PatternHistory []PatternEpisode

func (h PatternHistory) Value() (driver.Value, error) {
	return jsonValue([]PatternEpisode(h))
}
func (h *PatternHistory) Scan(value interface{}) error {
	return jsonScan((*[]PatternEpisode)(h), value)
}

type CoachingEntry struct {
	QuestionIndex int              `json:"questionIndex"`
	Severity      CoachingSeverity `json:"severity"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	Timestamp     int64            `json:"timestamp"` // unix seconds
}

type CoachingHistory []CoachingEntry

func (h CoachingHistory) Value() (driver.Value, error) {
	return jsonValue([]CoachingEntry(h))
}
func (h *CoachingHistory) Scan(value interface{}) error {
	return jsonScan((*[]CoachingEntry)(h), value)
}
