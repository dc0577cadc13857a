package models

import (
	"encoding/json"
	"fmt"
)

// ElementKind 图层元素类型,决定前端如何嵌入资源
type ElementKind string

const (
	KindImage ElementKind = "img"   // 图片图层
	KindVideo ElementKind = "video" // 视频图层
)

// ParseElementKind 将DOM标签名转换为图层类型
func ParseElementKind(tag string) (ElementKind, error) {
	switch ElementKind(tag) {
	case KindImage, KindVideo:
		return ElementKind(tag), nil
	}
	return "", fmt.Errorf("不支持的图层元素: %q", tag)
}

// Transform 二维仿射变换 (scaleX, skewX, skewY, scaleY, translateX, translateY)
type Transform [6]float64

// NewTranslateTransform 创建仅包含平移的变换,缩放/斜切固定为单位值
func NewTranslateTransform(x, y float64) Transform {
	return Transform{1, 0, 0, 1, x, y}
}

// TranslateX 水平平移量
func (t Transform) TranslateX() float64 { return t[4] }

// TranslateY 垂直平移量
func (t Transform) TranslateY() float64 { return t[5] }

// LayerDescriptor 横幅的单个可视图层
type LayerDescriptor struct {
	TagName   ElementKind `json:"tagName"`   // 元素类型(img/video)
	Opacity   [2]float64  `json:"opacity"`   // 起止透明度,采集时两者相同
	Transform Transform   `json:"transform"` // 仿射变换
	Width     float64     `json:"width"`     // 渲染宽度(px)
	Height    float64     `json:"height"`    // 渲染高度(px)
	Src       string      `json:"src"`       // 相对采集目录的资源路径
	A         float64     `json:"a"`         // 视差系数,校准前为0
}

// Validate 校验图层可以被持久化
func (l *LayerDescriptor) Validate() error {
	if l.Src == "" {
		return fmt.Errorf("图层资源路径未设置")
	}
	if _, err := ParseElementKind(string(l.TagName)); err != nil {
		return err
	}
	if l.Opacity[0] < 0 || l.Opacity[0] > 1 || l.Opacity[1] < 0 || l.Opacity[1] > 1 {
		return fmt.Errorf("透明度超出范围: %v", l.Opacity)
	}
	return nil
}

// MarshalLayers 序列化图层数据文档
func MarshalLayers(layers []LayerDescriptor) ([]byte, error) {
	if layers == nil {
		layers = []LayerDescriptor{}
	}
	return json.MarshalIndent(layers, "", "  ")
}
