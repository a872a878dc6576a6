// Package backend 是切换流程后端 (/api/settings, /api/stageN, /api/run-all) 的 HTTP 客户端。
// 响应在这里被解码为带标签的结果类型, 上层不再处理 results||result 这种形状猜测。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/pkg/logger"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	settingsPath = "/api/settings"
	runAllPath   = "/api/run-all"
)

// StageRequest 是 /api/stageN 与 /api/run-all 的请求体
type StageRequest struct {
	Domains   []string           `json:"domains"`
	IPAddress string             `json:"ip_address,omitempty"`
	APIKeys   *model.Credentials `json:"api_keys,omitempty"`
}

// SettingsResponse 是 GET /api/settings 的响应, 所有字段都可能缺失
type SettingsResponse struct {
	CloudflareEmail  string `json:"cloudflare_email"`
	CloudflareAPIKey string `json:"cloudflare_api_key"`
	RegistrarAPIURL  string `json:"registrar_api_url"`
	RegistrarAPIKey  string `json:"registrar_api_key"`
}

func (r SettingsResponse) Credentials() model.Credentials {
	return model.Credentials{
		CloudflareEmail:  r.CloudflareEmail,
		CloudflareAPIKey: r.CloudflareAPIKey,
		RegistrarAPIURL:  r.RegistrarAPIURL,
		RegistrarAPIKey:  r.RegistrarAPIKey,
	}
}

type Client struct {
	http *resty.Client
}

// New 创建客户端; timeout 为 0 时不设超时。失败的请求不重试。
func New(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: client}
}

// GetSettings 读取服务端保存的凭据; 非 2xx 响应视为传输错误
func (c *Client) GetSettings(ctx context.Context) (SettingsResponse, error) {
	var out SettingsResponse
	status, body, err := c.do(ctx, http.MethodGet, settingsPath, nil)
	if err != nil {
		return out, err
	}
	if status < 200 || status > 299 {
		return out, model.Transport(fmt.Errorf("GET %s: HTTP %d", settingsPath, status))
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, model.Transport(fmt.Errorf("decode settings: %w", err))
	}
	return out, nil
}

// SaveSettings 提交凭据; 响应中的 error 字段作为远端错误返回
func (c *Client) SaveSettings(ctx context.Context, creds model.Credentials) error {
	status, body, err := c.do(ctx, http.MethodPost, settingsPath, creds)
	if err != nil {
		return err
	}
	var out struct {
		Error json.RawMessage `json:"error"`
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return model.Transport(fmt.Errorf("decode settings response: %w", err))
		}
	}
	if msg, ok := model.ErrorMessage(out.Error); ok {
		return model.Remote(msg)
	}
	if status < 200 || status > 299 {
		return model.Remote(fmt.Sprintf("could not save settings (HTTP %d)", status))
	}
	return nil
}

// RunStage 调用 /api/stageN
func (c *Client) RunStage(ctx context.Context, stage model.Stage, req StageRequest) (model.Outcome, error) {
	_, body, err := c.do(ctx, http.MethodPost, stage.Path(), req)
	if err != nil {
		return model.Outcome{}, err
	}
	o, err := model.DecodeOutcome(body)
	if err != nil {
		return model.Outcome{}, model.Transport(err)
	}
	return o, nil
}

// RunAll 调用 /api/run-all, 由后端按顺序执行四个步骤; remote 非空表示整体失败
func (c *Client) RunAll(ctx context.Context, req StageRequest) (bundle model.Bundle, remote *model.Outcome, err error) {
	_, body, err := c.do(ctx, http.MethodPost, runAllPath, req)
	if err != nil {
		return nil, nil, err
	}
	bundle, remote, err = model.DecodeBundle(body)
	if err != nil {
		return nil, nil, model.Transport(err)
	}
	return bundle, remote, nil
}

// do 只负责收发; 响应体原样返回, 由调用方解码
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	req := c.http.R().SetContext(ctx)
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		logger.Logger.Debug("后端请求失败", zap.String("endpoint", path), zap.Error(err))
		return 0, nil, model.Transport(err)
	}
	logger.Logger.Debug("后端请求完成",
		zap.String("method", method),
		zap.String("endpoint", path),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("cost", resp.Time()),
	)
	return resp.StatusCode(), resp.Body(), nil
}
