package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashContent(t *testing.T) {
	a := HashContent([]byte("banner layer"))
	b := HashContent([]byte("banner layer"))
	c := HashContent([]byte("banner layer 2"))

	if a != b {
		t.Error("相同内容的哈希应该一致")
	}
	if a == c {
		t.Error("不同内容的哈希应该不同")
	}
	if len(a) != 64 || strings.ToLower(a) != a {
		t.Errorf("哈希应为64位小写十六进制: %s", a)
	}
	// 空内容的SHA-256
	if got := HashContent(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("空内容哈希错误: %s", got)
	}
}

func TestAssetFileName(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		index int
		want  string
	}{
		{"普通图片", "https://i0.hdslb.com/bfs/vc/abc.png", 0, "abc.png"},
		{"带处理参数", "https://i0.hdslb.com/bfs/vc/abc.png@1c.webp", 1, "abc.png@1c.webp"},
		{"忽略查询参数", "https://i0.hdslb.com/bfs/vc/v.webm?token=1", 2, "v.webm"},
		{"没有路径", "https://i0.hdslb.com/", 3, "layer_3"},
		{"无法解析", "://bad", 4, "layer_4"},
		{"上级目录", "https://i0.hdslb.com/bfs/..", 5, "layer_5"},
		{"当前目录", "https://i0.hdslb.com/bfs/.", 6, "layer_6"},
		{"占用清单文件名", "https://i0.hdslb.com/bfs/manifest.json", 7, "layer_7"},
		{"占用图层数据文件名", "https://i0.hdslb.com/bfs/DATA.JSON", 8, "layer_8"},
		{"占用临时文件名", "https://i0.hdslb.com/bfs/manifest.json.tmp", 9, "layer_9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssetFileName(tt.url, tt.index); got != tt.want {
				t.Errorf("AssetFileName(%q) = %q, 期望 %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestUniqueFileName(t *testing.T) {
	used := make(map[string]bool)

	got := []string{
		UniqueFileName("a.png", used),
		UniqueFileName("a.png", used),
		UniqueFileName("a.png", used),
		UniqueFileName("b.png", used),
	}
	want := []string{"a.png", "a_1.png", "a_2.png", "b.png"}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("第%d个文件名: 期望 %q, 得到 %q", i, want[i], got[i])
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "data.json")

	if err := WriteFileAtomic(target, []byte(`[1]`), 0644); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := WriteFileAtomic(target, []byte(`[2]`), 0644); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if string(content) != "[2]" {
		t.Errorf("内容错误: %s", content)
	}
	if FileExists(target + ".tmp") {
		t.Error("临时文件应该已被重命名")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) {
		t.Error("文件应该存在")
	}
	if FileExists(dir) {
		t.Error("目录不应被视为文件")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("不存在的文件应返回false")
	}
}

func TestRedactValue(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"非敏感值", "Referer", "https://www.bilibili.com/", "https://www.bilibili.com/"},
		{"SESSDATA长值", "SESSDATA", "abcd1234efgh5678", "abcd***5678"},
		{"短值", "bili_jct", "abc", "***"},
		{"Bearer令牌", "Authorization", "Bearer xyz", "Bearer ***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactValue(tt.key, tt.value); got != tt.want {
				t.Errorf("RedactValue(%q) = %q, 期望 %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRedactToString(t *testing.T) {
	got := RedactToString(map[string]string{
		"SESSDATA": "abcd1234efgh5678",
		"Referer":  "https://www.bilibili.com/",
	})
	want := "Referer: https://www.bilibili.com/, SESSDATA: abcd***5678"
	if got != want {
		t.Errorf("期望 %q, 得到 %q", want, got)
	}
}

func TestMaskAllToString(t *testing.T) {
	got := MaskAllToString(map[string]string{
		"DedeUserID": "123456789012",
		"buvid3":     "abc",
		"SESSDATA":   "abcd1234efgh5678",
	})
	want := "DedeUserID: 1234***9012, SESSDATA: abcd***5678, buvid3: ***"
	if got != want {
		t.Errorf("期望 %q, 得到 %q", want, got)
	}
	if strings.Contains(got, "123456789012") {
		t.Error("Cookie值不应以明文出现")
	}
}

func TestHeaderValidator(t *testing.T) {
	hv := NewHeaderValidator()

	tests := []struct {
		name    string
		header  string
		value   string
		wantErr bool
	}{
		{"有效头部", "Referer", "https://www.bilibili.com/", false},
		{"自定义头部", "X-Custom-Header", "value", false},
		{"禁止的Cookie", "Cookie", "SESSDATA=1", true},
		{"禁止的Host大小写", "host", "example.com", true},
		{"非法名称", "Bad Header", "v", true},
		{"非法值", "X-Test", "换行\n", true},
		{"超长值", "X-Long", strings.Repeat("a", MaxHeaderValueLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hv.ValidateHeader(tt.header, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHeader(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
		})
	}

	if err := hv.Validate(map[string]string{"Referer": "x", "Connection": "close"}); err == nil {
		t.Error("包含禁止头部时 Validate 应该返回错误")
	}
}

func TestNewProgressBar(t *testing.T) {
	var sb strings.Builder
	bar := NewProgressBar(2, "测试", &sb)
	_ = bar.Add(1)
	_ = bar.Add(1)
	_ = bar.Finish()

	if sb.Len() == 0 {
		t.Error("进度条应该有输出")
	}
}
