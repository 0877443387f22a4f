package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"keyword-research-go/pkg/keyword"
)

const (
	dataForSEOService = "DataForSEO"
	dataForSEOOK      = 20000
)

// dataForSEOEnvelope is the outer structure shared by every DataForSEO endpoint.
type dataForSEOEnvelope struct {
	StatusCode    int              `json:"status_code"`
	StatusMessage string           `json:"status_message"`
	Tasks         []dataForSEOTask `json:"tasks"`
}

type dataForSEOTask struct {
	StatusCode    int             `json:"status_code"`
	StatusMessage string          `json:"status_message"`
	Data          json.RawMessage `json:"data"`
	Result        json.RawMessage `json:"result"`
}

type metricItem struct {
	Keyword          string      `json:"keyword"`
	SearchVolume     *int        `json:"search_volume"`
	CPC              *float64    `json:"cpc"`
	Competition      competition `json:"competition"`
	CompetitionLevel string      `json:"competition_level"`
}

type serpResult struct {
	Keyword string     `json:"keyword"`
	Items   []serpItem `json:"items"`
}

type serpItem struct {
	Type         string `json:"type"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	RankGroup    int    `json:"rank_group"`
	RankAbsolute int    `json:"rank_absolute"`
}

type taskData struct {
	Keyword string `json:"keyword"`
}

type userDataResult struct {
	Login string `json:"login"`
	Money struct {
		Balance float64 `json:"balance"`
	} `json:"money"`
}

// competition accepts the numeric index of the keyword endpoints as well as the
// LOW/MEDIUM/HIGH labels some endpoints return in the same field.
type competition struct {
	value float64
	label string
}

func (c *competition) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		if err := json.Unmarshal(b, &c.label); err != nil {
			return err
		}
		c.value = mapCompetitionLabel(c.label)
		return nil
	}
	return json.Unmarshal(b, &c.value)
}

// mapCompetitionLabel converts competition labels to numeric values
func mapCompetitionLabel(label string) float64 {
	switch strings.ToUpper(label) {
	case "LOW":
		return 0.3
	case "HIGH":
		return 0.8
	case "MEDIUM":
		return 0.5
	default:
		return 0.5
	}
}

// DataForSEOParser converts DataForSEO responses into keyword batches
type DataForSEOParser struct{}

// NewDataForSEOParser creates a new DataForSEO response parser
func NewDataForSEOParser() *DataForSEOParser {
	return &DataForSEOParser{}
}

// ParseMetrics extracts keyword metric entries from a search_volume or
// keywords_for_keywords response. Entries without a keyword are skipped.
func (p *DataForSEOParser) ParseMetrics(body []byte) ([]keyword.MetricEntry, error) {
	tasks, err := p.tasks(body)
	if err != nil {
		return nil, err
	}

	entries := make([]keyword.MetricEntry, 0)
	for _, task := range tasks {
		var items []metricItem
		if err := decodeOptional(task.Result, &items); err != nil {
			return nil, &DecodeError{Service: dataForSEOService, Err: err}
		}
		for _, item := range items {
			if strings.TrimSpace(item.Keyword) == "" {
				continue
			}
			entries = append(entries, toMetricEntry(item))
		}
	}
	return entries, nil
}

// ParseSERP extracts one SerpResponse per task. The queried keyword comes from
// the echoed task data, falling back to the keyword of the result.
func (p *DataForSEOParser) ParseSERP(body []byte) ([]keyword.SerpResponse, error) {
	tasks, err := p.tasks(body)
	if err != nil {
		return nil, err
	}

	responses := make([]keyword.SerpResponse, 0, len(tasks))
	for _, task := range tasks {
		var results []serpResult
		if err := decodeOptional(task.Result, &results); err != nil {
			return nil, &DecodeError{Service: dataForSEOService, Err: err}
		}
		if len(results) == 0 {
			continue
		}

		queried := taskKeyword(task.Data)
		if queried == "" {
			queried = results[0].Keyword
		}
		if queried == "" {
			continue
		}

		items := make([]keyword.SerpItem, 0, len(results[0].Items))
		for _, it := range results[0].Items {
			position := it.RankGroup
			if position == 0 {
				position = it.RankAbsolute
			}
			items = append(items, keyword.SerpItem{
				Type:     it.Type,
				URL:      it.URL,
				Title:    it.Title,
				Position: position,
			})
		}
		responses = append(responses, keyword.SerpResponse{Keyword: queried, Items: items})
	}
	return responses, nil
}

// ParseUserData extracts the account of an appendix/user_data response.
func (p *DataForSEOParser) ParseUserData(body []byte) (*AccountInfo, error) {
	tasks, err := p.tasks(body)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		var results []userDataResult
		if err := decodeOptional(task.Result, &results); err != nil {
			return nil, &DecodeError{Service: dataForSEOService, Err: err}
		}
		if len(results) > 0 {
			return &AccountInfo{Login: results[0].Login, Balance: results[0].Money.Balance}, nil
		}
	}
	return nil, fmt.Errorf("%s user data response has no result", dataForSEOService)
}

// tasks validates the envelope and returns its successful tasks. A response
// whose tasks all failed is an error.
func (p *DataForSEOParser) tasks(body []byte) ([]dataForSEOTask, error) {
	if len(body) == 0 {
		return nil, &DecodeError{Service: dataForSEOService, Err: fmt.Errorf("empty response body")}
	}

	var env dataForSEOEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{
			Service: dataForSEOService,
			Err:     fmt.Errorf("%w (response: %s)", err, string(body[:min(len(body), 200)])),
		}
	}

	if env.StatusCode != dataForSEOOK {
		return nil, &StatusError{Service: dataForSEOService, StatusCode: env.StatusCode, Message: env.StatusMessage}
	}

	ok := make([]dataForSEOTask, 0, len(env.Tasks))
	var lastFailure dataForSEOTask
	for _, task := range env.Tasks {
		if task.StatusCode != dataForSEOOK {
			lastFailure = task
			continue
		}
		ok = append(ok, task)
	}
	if len(ok) == 0 && len(env.Tasks) > 0 {
		return nil, &StatusError{Service: dataForSEOService, StatusCode: lastFailure.StatusCode, Message: lastFailure.StatusMessage}
	}
	return ok, nil
}

func toMetricEntry(item metricItem) keyword.MetricEntry {
	entry := keyword.MetricEntry{
		Keyword:          item.Keyword,
		Competition:      item.Competition.value,
		CompetitionLevel: item.CompetitionLevel,
	}
	if item.SearchVolume != nil {
		entry.SearchVolume = *item.SearchVolume
	}
	if item.CPC != nil {
		entry.CPC = *item.CPC
	}
	if entry.CompetitionLevel == "" {
		entry.CompetitionLevel = item.Competition.label
	}
	return entry
}

// taskKeyword reads the queried keyword from task data, which is an object in
// live responses and an array in some recorded ones.
func taskKeyword(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '[' {
		var list []taskData
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return ""
		}
		return list[0].Keyword
	}
	var data taskData
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}
	return data.Keyword
}

func decodeOptional(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, v)
}
