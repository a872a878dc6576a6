// Package render 将步骤结果转换为页面上的 HTML 片段, 以及 CLI 使用的纯文本。
package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/domain-cutover/internal/model"
	"github.com/yosssi/gohtml"
)

const (
	invalidFormatMessage = "Invalid results format"
	allStagesHeading     = "Results of all stages"
)

var funcs = template.FuncMap{
	"join": strings.Join,
}

var fragments = template.Must(template.New("fragments").Funcs(funcs).Parse(`
{{define "items"}}{{range .}}<div class="domain-result {{if .Succeeded}}success{{else}}error{{end}}">
<div class="domain-name">{{.Domain}}</div>
<div class="message">{{.Message}}</div>
{{if .Nameservers}}<div class="message">NS: {{join .Nameservers ", "}}</div>{{end}}
{{if .ZoneID}}<div class="message zone-id">Zone: {{.ZoneID}}</div>{{end}}
</div>{{end}}{{end}}

{{define "block"}}<div class="stage-result"><h3>{{.Title}}</h3>{{.Body}}</div>{{end}}

{{define "bundle"}}<h2>{{.Heading}}</h2>{{range .Blocks}}{{.}}{{end}}{{end}}

{{define "message"}}<div class="{{.Class}}">{{.Text}}</div>{{end}}
`))

// Renderer 生成 HTML 片段; Indent 为 true 时用 gohtml 缩进输出
type Renderer struct {
	Indent bool
}

func New() *Renderer {
	return &Renderer{Indent: true}
}

// Format 渲染结果列表; 错误结果和格式错误都返回内联错误片段
func (r *Renderer) Format(o model.Outcome) template.HTML {
	switch {
	case o.Kind == model.OutcomeError:
		return r.Error(o.Message)
	case o.Malformed:
		return r.Error(invalidFormatMessage)
	}
	return r.exec("items", o.Items)
}

// Render 在结果列表外包一层带标题的容器
func (r *Renderer) Render(title string, o model.Outcome) template.HTML {
	return r.exec("block", struct {
		Title string
		Body  template.HTML
	}{title, r.rawFormat(o)})
}

// RenderBundle 按 1→4 的固定顺序渲染 run-all 结果, 跳过缺失的步骤
func (r *Renderer) RenderBundle(b model.Bundle) template.HTML {
	var blocks []template.HTML
	for _, s := range model.Stages {
		o, ok := b[s]
		if !ok {
			continue
		}
		blocks = append(blocks, r.block(s.Title(), o))
	}
	return r.exec("bundle", struct {
		Heading string
		Blocks  []template.HTML
	}{allStagesHeading, blocks})
}

func (r *Renderer) Error(msg string) template.HTML {
	return r.message("error-message", msg)
}

func (r *Renderer) Success(msg string) template.HTML {
	return r.message("success-message", msg)
}

// Loading 是请求进行中时结果区显示的占位内容
func (r *Renderer) Loading(msg string) template.HTML {
	return r.message("loading", msg)
}

func (r *Renderer) message(class, text string) template.HTML {
	return r.exec("message", struct{ Class, Text string }{class, text})
}

// block 与 Render 相同, 但不单独缩进, 供 RenderBundle 拼接
func (r *Renderer) block(title string, o model.Outcome) template.HTML {
	plain := Renderer{}
	return plain.Render(title, o)
}

func (r *Renderer) rawFormat(o model.Outcome) template.HTML {
	plain := Renderer{}
	return plain.Format(o)
}

func (r *Renderer) exec(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		// 模板在包初始化时已校验, 这里只可能是数据问题
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	out := buf.Bytes()
	if r.Indent {
		out = gohtml.FormatBytes(out)
	}
	return template.HTML(out)
}
