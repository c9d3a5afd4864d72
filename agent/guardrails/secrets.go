package guardrails

import (
	"os"
	"sort"
	"strings"
)

// MonitoredSecretNames 受监控的凭据环境变量名
var MonitoredSecretNames = []string{
	"OPENAI_AZURE_KEY", "TWILIO_AUTH_TOKEN", "NEWS_API_KEY", "OPENAI_API_KEY_JON",
	"H2OGPT_H2OGPT_KEY", "TWITTER_API_KEY", "FACEBOOK_ACCESS_TOKEN", "API_KEY", "LINKEDIN_API_KEY",
	"STRIPE_API_KEY", "ADMIN_PASS", "S2_API_KEY", "ANTHROPIC_API_KEY", "AUTH_TOKEN",
	"AWS_SERVER_PUBLIC_KEY", "OPENAI_API_KEY", "HUGGING_FACE_HUB_TOKEN", "AWS_ACCESS_KEY_ID",
	"SERPAPI_API_KEY", "WOLFRAM_ALPHA_APPID", "AWS_SECRET_ACCESS_KEY", "ACCESS_TOKEN",
	"SLACK_API_TOKEN", "MISTRAL_API_KEY", "TOGETHERAI_API_TOKEN", "GITHUB_TOKEN", "SECRET_KEY",
	"GOOGLE_API_KEY", "REPLICATE_API_TOKEN", "GOOGLE_CLIENT_SECRET", "GROQ_API_KEY",
	"AWS_SERVER_SECRET_KEY", "H2OGPT_OPENAI_BASE_URL", "H2OGPT_OPENAI_API_KEY",
	"H2OGPT_MAIN_KWARGS", "GRADIO_H2OGPT_H2OGPT_KEY",
}

// placeholderValues 已知的占位/测试值（小写比较）
var placeholderValues = lowerSet(
	"", "EMPTY", "DUMMY", "null", "NULL", "Null",
	"YOUR_API_KEY", "YOUR-API-KEY", "your-api-key", "your_api_key",
	"ENTER_YOUR_API_KEY_HERE", "INSERT_API_KEY_HERE",
	"API_KEY_GOES_HERE", "REPLACE_WITH_YOUR_API_KEY",
	"PLACEHOLDER", "EXAMPLE_KEY", "TEST_KEY", "SAMPLE_KEY",
	"xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
	"0000000000000000000000000000000000000000",
	"1111111111111111111111111111111111111111",
	"abcdefghijklmnopqrstuvwxyz123456",
	"123456789abcdefghijklmnopqrstuvwxyz",
	"sk_test_", "pk_test_",
	"MY_SECRET_KEY", "MY_API_KEY", "MY_AUTH_TOKEN",
	"CHANGE_ME", "REPLACE_ME", "YOUR_TOKEN_HERE",
	"N/A", "NA", "None", "not_set", "NOT_SET", "NOT-SET",
	"undefined", "UNDEFINED", "foo", "bar",
)

func lowerSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

// IsPlaceholder 判断值是否为已知占位值（不区分大小写）
func IsPlaceholder(value string) bool {
	_, ok := placeholderValues[strings.ToLower(value)]
	return ok
}

// SecretProvider 秘密值来源
type SecretProvider interface {
	// Lookup 返回变量值；未设置时 ok 为 false
	Lookup(name string) (value string, ok bool)
}

// EnvSecretProvider 从进程环境读取
type EnvSecretProvider struct{}

// Lookup 实现 SecretProvider 接口
func (EnvSecretProvider) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapSecretProvider 注入的固定映射，主要用于测试
type MapSecretProvider map[string]string

// Lookup 实现 SecretProvider 接口
func (m MapSecretProvider) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// SecretCatalog 当前有效的秘密值集合
// 每次调用护栏时重新计算，不做持久化。
type SecretCatalog struct {
	// byValue 小写值 -> 对应的变量名（已排序）
	byValue map[string][]string
}

// NewSecretCatalog 读取受监控变量，丢弃空值与占位值
func NewSecretCatalog(provider SecretProvider, names []string) *SecretCatalog {
	c := &SecretCatalog{byValue: make(map[string][]string)}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		value, ok := provider.Lookup(name)
		if !ok || value == "" || IsPlaceholder(value) {
			continue
		}
		lower := strings.ToLower(value)
		c.byValue[lower] = append(c.byValue[lower], name)
	}
	for _, keys := range c.byValue {
		sort.Strings(keys)
	}
	return c
}

// Len 返回有效秘密值数量
func (c *SecretCatalog) Len() int {
	return len(c.byValue)
}

// Contains 判断文本中是否包含任一秘密值（不区分大小写）
func (c *SecretCatalog) Contains(text string) bool {
	if len(c.byValue) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for value := range c.byValue {
		if strings.Contains(lower, value) {
			return true
		}
	}
	return false
}

// ViolatedKeys 返回文本中出现的全部秘密值对应的变量名（已排序）
func (c *SecretCatalog) ViolatedKeys(text string) []string {
	lower := strings.ToLower(text)
	var keys []string
	for value, names := range c.byValue {
		if strings.Contains(lower, value) {
			keys = append(keys, names...)
		}
	}
	sort.Strings(keys)
	return keys
}
