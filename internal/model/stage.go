package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Stage 是切换流程中的一个步骤, 取值 1..4
type Stage int

const (
	StageARecords   Stage = 1 // 更新注册商处的 A 记录
	StageCloudflare Stage = 2 // 将域名加入 Cloudflare
	StageNameserver Stage = 3 // 在注册商处更新 NS
	StageTLS        Stage = 4 // 配置 TLS 和 Always HTTPS
)

// Stages 按固定顺序列出全部步骤
var Stages = []Stage{StageARecords, StageCloudflare, StageNameserver, StageTLS}

var stageTitles = map[Stage]string{
	StageARecords:   "Stage 1: Update A records",
	StageCloudflare: "Stage 2: Add to Cloudflare",
	StageNameserver: "Stage 3: Update NS records",
	StageTLS:        "Stage 4: Configure TLS/HTTPS",
}

func ParseStage(n int) (Stage, error) {
	s := Stage(n)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown stage %d", n)
	}
	return s, nil
}

func (s Stage) Valid() bool { return s >= StageARecords && s <= StageTLS }

// Key 是 run-all 响应中的字段名
func (s Stage) Key() string { return fmt.Sprintf("stage%d", int(s)) }

func (s Stage) Path() string { return fmt.Sprintf("/api/stage%d", int(s)) }

func (s Stage) Title() string { return stageTitles[s] }

// NeedsIP 只有第一步需要 IP 地址
func (s Stage) NeedsIP() bool { return s == StageARecords }

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StageResult 是单个域名在某一步骤中的结果
type StageResult struct {
	Domain      string   `json:"domain"`
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Nameservers []string `json:"nameservers,omitempty"`
	ZoneID      string   `json:"zone_id,omitempty"`
}

func (r StageResult) Succeeded() bool { return r.Status == StatusSuccess }

type OutcomeKind string

const (
	OutcomeList  OutcomeKind = "list"
	OutcomeError OutcomeKind = "error"
)

// Outcome 是后端响应解码后的标签类型: 要么是结果列表, 要么是错误消息。
// Malformed 为 true 表示响应既不是列表也不是错误, 渲染时显示格式错误。
type Outcome struct {
	Kind      OutcomeKind
	Items     []StageResult
	Message   string
	Malformed bool
}

func ListOutcome(items []StageResult) Outcome {
	return Outcome{Kind: OutcomeList, Items: items}
}

func ErrorOutcome(msg string) Outcome {
	return Outcome{Kind: OutcomeError, Message: msg}
}

// DecodeOutcome 接受 {"results": [...]}, 裸数组, 或 {"error": "..."}
func DecodeOutcome(raw json.RawMessage) (Outcome, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return Outcome{}, fmt.Errorf("response is not valid JSON")
	}
	switch trimmed[0] {
	case '[':
		var items []StageResult
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Outcome{}, fmt.Errorf("decode result list: %w", err)
		}
		return ListOutcome(items), nil
	case '{':
		var envelope struct {
			Error   json.RawMessage `json:"error"`
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return Outcome{}, fmt.Errorf("decode result envelope: %w", err)
		}
		if msg, ok := ErrorMessage(envelope.Error); ok {
			return ErrorOutcome(msg), nil
		}
		results := bytes.TrimSpace(envelope.Results)
		if len(results) == 0 || results[0] != '[' {
			return Outcome{Kind: OutcomeList, Malformed: true}, nil
		}
		var items []StageResult
		if err := json.Unmarshal(results, &items); err != nil {
			return Outcome{}, fmt.Errorf("decode results field: %w", err)
		}
		return ListOutcome(items), nil
	default:
		return Outcome{Kind: OutcomeList, Malformed: true}, nil
	}
}

// Bundle 是 run-all 的结果, 缺失的步骤不在 map 中
type Bundle map[Stage]Outcome

// DecodeBundle 解析 run-all 响应; 顶层带 error 时第二个返回值非空
func DecodeBundle(raw json.RawMessage) (Bundle, *Outcome, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("decode run-all response: %w", err)
	}
	if msg, ok := ErrorMessage(fields["error"]); ok {
		o := ErrorOutcome(msg)
		return nil, &o, nil
	}
	bundle := make(Bundle)
	for _, s := range Stages {
		part, ok := fields[s.Key()]
		if !ok || isNull(part) {
			continue
		}
		o, err := DecodeOutcome(part)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", s.Key(), err)
		}
		bundle[s] = o
	}
	return bundle, nil, nil
}

// ErrorMessage 把 error 字段转成消息。null, "", false, 0 视为没有错误;
// 字符串原样返回, 其他值使用其 JSON 文本。
func ErrorMessage(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", `""`, "false", "0":
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg, msg != ""
	}
	return string(raw), true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
