package model

import "strings"

// Credentials 是访问 CDN 和域名注册商所需的四个字符串
type Credentials struct {
	CloudflareEmail  string `json:"cloudflare_email" validate:"required"`
	CloudflareAPIKey string `json:"cloudflare_api_key" validate:"required"`
	RegistrarAPIURL  string `json:"registrar_api_url" validate:"required"`
	RegistrarAPIKey  string `json:"registrar_api_key" validate:"required"`
}

// Trimmed 返回去掉首尾空白后的副本
func (c Credentials) Trimmed() Credentials {
	return Credentials{
		CloudflareEmail:  strings.TrimSpace(c.CloudflareEmail),
		CloudflareAPIKey: strings.TrimSpace(c.CloudflareAPIKey),
		RegistrarAPIURL:  strings.TrimSpace(c.RegistrarAPIURL),
		RegistrarAPIKey:  strings.TrimSpace(c.RegistrarAPIKey),
	}
}

// Complete 四个字段均非空
func (c Credentials) Complete() bool {
	return c.CloudflareEmail != "" && c.CloudflareAPIKey != "" &&
		c.RegistrarAPIURL != "" && c.RegistrarAPIKey != ""
}

// Masked 用于日志和状态快照，隐藏两个密钥字段
func (c Credentials) Masked() Credentials {
	c.CloudflareAPIKey = mask(c.CloudflareAPIKey)
	c.RegistrarAPIKey = mask(c.RegistrarAPIKey)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
