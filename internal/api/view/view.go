// Package view 包含控制台和设置页的 HTML 模板及其页面数据。
package view

import (
	"embed"
	"html/template"
	"time"

	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/internal/state"
)

//go:embed templates/*.tmpl
var files embed.FS

const (
	ConsoleTemplate  = "console.tmpl"
	SettingsTemplate = "settings.tmpl"
)

// Templates 解析全部模板, 供 gin 的 SetHTMLTemplate 使用
func Templates() *template.Template {
	return template.Must(template.ParseFS(files, "templates/*.tmpl"))
}

// Banner 是横幅的渲染数据
type Banner struct {
	Class        string
	Message      string
	ClearAfterMS int64
}

// NewBanner 将状态中的横幅转换为页面数据; ok=false 时返回 nil
func NewBanner(b state.Banner, ok bool, ttl time.Duration, successClass, errorClass string) *Banner {
	if !ok {
		return nil
	}
	class := errorClass
	if b.Kind == state.BannerSuccess {
		class = successClass
	}
	return &Banner{Class: class, Message: b.Message, ClearAfterMS: ttl.Milliseconds()}
}

type StageButton struct {
	Number int
	Title  string
}

func StageButtons() []StageButton {
	buttons := make([]StageButton, 0, len(model.Stages))
	for _, s := range model.Stages {
		buttons = append(buttons, StageButton{Number: int(s), Title: s.Title()})
	}
	return buttons
}

type ConsolePage struct {
	Form                state.Form
	Results             template.HTML
	SettingsBanner      *Banner
	DefaultRegistrarURL string
	RedactAfterMS       int64 // 非 0 时浏览器在该时间后清空两个密钥输入框
	Stages              []StageButton
}

type SettingsPage struct {
	Form                state.Form
	Banner              *Banner
	DefaultRegistrarURL string
	RedactAfterMS       int64
	RedirectAfterMS     int64 // 非 0 时浏览器在该时间后跳回控制台
}

// SettingsRedirectDelay 设置页保存成功后跳回控制台前的等待时间
const SettingsRedirectDelay = 1500 * time.Millisecond

// RedactAfter 返回密钥输入框的清除延迟, 没有待执行的清除时返回 0
func RedactAfter(pending bool, delay time.Duration) int64 {
	if !pending {
		return 0
	}
	return delay.Milliseconds()
}
