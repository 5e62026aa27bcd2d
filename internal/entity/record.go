package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one spreadsheet criterion. It serializes as a single-key object
// {code: text} so lists keep duplicates and source order.
type Record struct {
	Code string
	Text string
}

func (r Record) MarshalJSON() ([]byte, error) {
	key, err := json.Marshal(r.Code)
	if err != nil {
		return nil, err
	}
	val, err := json.Marshal(r.Text)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteByte('{')
	b.Write(key)
	b.WriteByte(':')
	b.Write(val)
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("record must have exactly one key, got %d", len(m))
	}
	for k, v := range m {
		r.Code = k
		switch t := v.(type) {
		case string:
			r.Text = t
		case nil:
			r.Text = ""
		default:
			r.Text = fmt.Sprint(t)
		}
	}
	return nil
}

// Extraction is the download envelope of the spreadsheet extractor.
type Extraction struct {
	Records []Record `json:"estrazione"`
}
