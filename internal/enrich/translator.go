package enrich

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"

	"github.com/iabetor/ainews/internal/logger"
)

// Translator 把一段原文翻译成目标语言。
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// TencentTranslator 基于腾讯云机器翻译的实现。
// 未配置大模型摘要时的轻量替代：只翻译，不压缩内容。
type TencentTranslator struct {
	client *tmt.Client
	target string
}

// NewTencentTranslator 创建翻译器。
func NewTencentTranslator(secretID, secretKey, region, targetLang string) (*TencentTranslator, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tmt.tencentcloudapi.com"

	client, err := tmt.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建翻译客户端失败: %w", err)
	}

	logger.Info("[enrich] 腾讯云翻译已初始化")
	return &TencentTranslator{client: client, target: targetLang}, nil
}

// Translate 翻译文本，源语言自动检测。
func (t *TencentTranslator) Translate(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}

	request := tmt.NewTextTranslateRequest()
	request.SourceText = common.StringPtr(text)
	request.Source = common.StringPtr("auto")
	request.Target = common.StringPtr(t.target)
	request.ProjectId = common.Int64Ptr(0)

	response, err := t.client.TextTranslateWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("翻译请求失败: %w", err)
	}
	if response.Response == nil || response.Response.TargetText == nil {
		return "", fmt.Errorf("翻译响应为空")
	}
	return *response.Response.TargetText, nil
}
