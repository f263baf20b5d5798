// Package auth 把翻译服务的 API key 保存在系统钥匙串里
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/LJTian/WordWeave/internal/provider"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const serviceName = "wordweave"

const (
	SourceKeychain = "Keychain"
	SourceEnv      = "Environment Variable"
)

// 需要 key 的服务 -> 钥匙串账号与环境变量
var accounts = map[string]struct{ account, envVar string }{
	provider.NameGoogle: {"google-api-key", "GOOGLE_TRANSLATE_API_KEY"},
	provider.NameGemini: {"gemini-api-key", "GEMINI_API_KEY"},
}

// Normalize 把 google/GEMINI 之类的输入转成服务名，不支持时返回错误
func Normalize(service string) (string, error) {
	for name := range accounts {
		if strings.EqualFold(name, strings.TrimSpace(service)) {
			return name, nil
		}
	}
	return "", fmt.Errorf("invalid service %q, must be google or gemini", service)
}

// GetKey 先查钥匙串，allowEnv 为 true 时再查环境变量；返回 key 与来源
func GetKey(service string, allowEnv bool) (string, string) {
	acc, ok := accounts[service]
	if !ok {
		return "", ""
	}
	key, err := keyring.Get(serviceName, acc.account)
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), SourceKeychain
	}
	if allowEnv {
		if key := strings.TrimSpace(os.Getenv(acc.envVar)); key != "" {
			return key, SourceEnv
		}
	}
	return "", ""
}

// Keys 返回所有能找到的 key，供会话构造翻译服务
func Keys(allowEnv bool) map[string]string {
	out := make(map[string]string, len(accounts))
	for name := range accounts {
		if key, _ := GetKey(name, allowEnv); key != "" {
			out[name] = key
		}
	}
	return out
}

func SaveKey(service, key string) error {
	acc, ok := accounts[service]
	if !ok {
		return fmt.Errorf("invalid service %q", service)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(serviceName, acc.account, key)
}

func DeleteKey(service string) error {
	acc, ok := accounts[service]
	if !ok {
		return fmt.Errorf("invalid service %q", service)
	}
	return keyring.Delete(serviceName, acc.account)
}

// GetStatus 只看钥匙串
func GetStatus(service string) bool {
	acc, ok := accounts[service]
	if !ok {
		return false
	}
	key, err := keyring.Get(serviceName, acc.account)
	return err == nil && key != ""
}

// PromptForAPIKey 在终端里不回显地读取 key
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Print(prompt)
	bs, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bs)), nil
}
