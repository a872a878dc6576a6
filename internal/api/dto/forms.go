package dto

import "github.com/domain-cutover/internal/model"

// StageForm 是步骤按钮提交的表单, 非空校验交给 Stage Runner 以便给出页面提示
type StageForm struct {
	Domains   string `form:"domains"`
	IPAddress string `form:"ip_address"`
}

// SettingsForm 是凭据表单
type SettingsForm struct {
	CloudflareEmail  string `form:"cloudflare_email"`
	CloudflareAPIKey string `form:"cloudflare_api_key"`
	RegistrarAPIURL  string `form:"registrar_api_url"`
	RegistrarAPIKey  string `form:"registrar_api_key"`
}

func (f SettingsForm) Credentials() model.Credentials {
	return model.Credentials{
		CloudflareEmail:  f.CloudflareEmail,
		CloudflareAPIKey: f.CloudflareAPIKey,
		RegistrarAPIURL:  f.RegistrarAPIURL,
		RegistrarAPIKey:  f.RegistrarAPIKey,
	}
}
