package main

import "testing"

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		daily   bool
		wantErr bool
	}{
		{"默认标签", "", false, false},
		{"普通标签", "spring-2024", false, false},
		{"带点和下划线", "v1.2_final", false, false},
		{"定时模式", "", true, false},
		{"定时模式带标签", "spring", true, true},
		{"路径穿越", "../etc", false, true},
		{"包含空格", "my banner", false, true},
		{"中文标签", "春节", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlags(tt.label, tt.daily)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFlags(%q, %v) error = %v, wantErr %v", tt.label, tt.daily, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLabelLength(t *testing.T) {
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateLabel(string(long)); err == nil {
		t.Error("超长标签应该报错")
	}
	if err := ValidateLabel(string(long[:64])); err != nil {
		t.Errorf("64字符标签不应报错: %v", err)
	}
}
