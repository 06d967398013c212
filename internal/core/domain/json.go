package domain

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON 工具可以是字串或 {name, desc} 物件
func (t *Tool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Name)
	}
	var raw struct {
		Name string `json:"name"`
		Desc string `json:"desc"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Name, t.Desc = raw.Name, raw.Desc
	return nil
}

// UnmarshalJSON 步驟可以是字串或 {step, desc|content} 物件
func (s *Step) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Desc)
	}
	var raw struct {
		Step    json.Number `json:"step"`
		Desc    string      `json:"desc"`
		Content string      `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if n, err := raw.Step.Int64(); err == nil {
		s.Step = int(n)
	}
	s.Desc = raw.Desc
	if s.Desc == "" {
		s.Desc = raw.Content
	}
	return nil
}

// NumberSteps 為缺少序號的步驟依位置補上序號
func NumberSteps(steps []Step) []Step {
	for i := range steps {
		if steps[i].Step <= 0 {
			steps[i].Step = i + 1
		}
	}
	return steps
}
