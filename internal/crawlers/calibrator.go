package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/mikukko/bilibili-online/internal/models"
	"github.com/mikukko/bilibili-online/internal/utils"
)

// CalibrationConfig 视差校准参数
type CalibrationConfig struct {
	DragOffset float64       // 水平拖动距离(px)
	DragSteps  int           // 拖动分步数
	Hold       time.Duration // 拖动后等待动画稳定的时间
	Divisor    float64       // 系数除数
}

// DefaultCalibrationConfig 默认校准参数
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		DragOffset: 1000,
		DragSteps:  5,
		Hold:       1500 * time.Millisecond,
		Divisor:    1000,
	}
}

// Coefficient 根据拖动前后的水平平移计算视差系数
func Coefficient(originalX, shiftedX, divisor float64) float64 {
	if divisor == 0 {
		return 0
	}
	return (shiftedX - originalX) / divisor
}

// Calibrate 模拟拖动横幅并根据各图层的水平位移写入视差系数
// 会改变页面状态,只应在确认不是重复采集后调用
func Calibrate(ctx context.Context, page PageDriver, selector string, layers []models.LayerDescriptor, cfg CalibrationConfig) (err error) {
	if err := page.PressAndDrag(ctx, selector, cfg.DragOffset, cfg.DragSteps); err != nil {
		return fmt.Errorf("模拟拖动失败: %w", err)
	}
	defer func() {
		if releaseErr := page.ReleasePointer(ctx); releaseErr != nil && err == nil {
			err = fmt.Errorf("释放指针失败: %w", releaseErr)
		}
	}()

	if err := sleepContext(ctx, cfg.Hold); err != nil {
		return err
	}

	shifted, err := page.QueryLayers(ctx, selector)
	if err != nil {
		return fmt.Errorf("拖动后查询图层失败: %w", err)
	}
	if len(shifted) != len(layers) {
		return fmt.Errorf("%w: 拖动后图层数变化 %d -> %d", ErrStructureNotFound, len(layers), len(shifted))
	}

	for i := range layers {
		x, _, err := ParseTranslate(shifted[i].Transform)
		if err != nil {
			return fmt.Errorf("拖动后第%d个图层: %w", i+1, err)
		}
		layers[i].A = Coefficient(layers[i].Transform.TranslateX(), x, cfg.Divisor)
		utils.Debugf("图层 %d: translateX %.2f -> %.2f, a=%.4f", i+1, layers[i].Transform.TranslateX(), x, layers[i].A)
	}

	return nil
}
