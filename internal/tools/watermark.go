package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var textPositionMap = map[task.WatermarkPosition][2]string{
	task.PosTopLeft:     {"10", "10"},
	task.PosTopRight:    {"w-tw-10", "10"},
	task.PosBottomLeft:  {"10", "h-th-10"},
	task.PosBottomRight: {"w-tw-10", "h-th-10"},
	task.PosCenter:      {"(w-tw)/2", "(h-th)/2"},
}

var imagePositionMap = map[task.WatermarkPosition][2]string{
	task.PosTopLeft:     {"10", "10"},
	task.PosTopRight:    {"main_w-overlay_w-10", "10"},
	task.PosBottomLeft:  {"10", "main_h-overlay_h-10"},
	task.PosBottomRight: {"main_w-overlay_w-10", "main_h-overlay_h-10"},
	task.PosCenter:      {"(main_w-overlay_w)/2", "(main_h-overlay_h)/2"},
}

// watermarkVideo implements §4.F's Watermark tool: text or image, 5
// fixed positions for the non-moving modes. Text watermarks honour all 8
// animation modes; image watermarks honour only moving and bouncing, and
// every other mode places the image statically at its position.
func watermarkVideo(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	s := splitByKind(downloaded)
	if len(s.videos) == 0 {
		return nil, xerrors.Newf("watermark requires at least 1 video input").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	var outputs []Output
	total := len(s.videos)
	for i, v := range s.videos {
		if err := checkCancel(t); err != nil {
			return nil, err
		}

		outName := numberedOutput(forceExtension(t.OutputName, ".mp4"), i, total)
		outPath := filepath.Join(t.WorkDir, outName)
		sink("applying watermark")

		var args []string
		if t.Config.Watermark.ImagePath != "" {
			vf := buildImageWatermarkFilter(t.Config.Watermark)
			args = []string{
				"-y", "-i", v.Path, "-i", t.Config.Watermark.ImagePath,
				"-filter_complex", vf,
				"-map", "[out]", "-map", "0:a?",
				"-c:a", "copy",
				outPath,
			}
		} else {
			vf := buildTextWatermarkFilter(t.Config.Watermark)
			args = []string{"-y", "-i", v.Path, "-vf", vf, "-c:a", "copy", outPath}
		}

		if err := runFFmpeg(ctx, t, "watermark", args); err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Path: outPath})
	}
	return outputs, nil
}

func buildTextWatermarkFilter(cfg struct {
	Text      string
	ImagePath string
	Position  task.WatermarkPosition
	Animation task.WatermarkAnimation
}) string {
	pos, ok := textPositionMap[cfg.Position]
	if !ok {
		pos = textPositionMap[task.PosBottomRight]
	}
	x, y := pos[0], pos[1]
	text := strings.ReplaceAll(cfg.Text, "'", `\'`)
	base := fmt.Sprintf("drawtext=text='%s':fontsize=24:fontcolor=white@0.7:borderw=2:bordercolor=black@0.5", text)

	switch cfg.Animation {
	case task.AnimFadeIn:
		return fmt.Sprintf("%s:x=%s:y=%s:alpha='if(lt(t,2),t/2,1)'", base, x, y)
	case task.AnimFadeInOut:
		return fmt.Sprintf("%s:x=%s:y=%s:alpha='if(lt(t,2),t/2,if(gt(t,duration-2),(duration-t)/2,1))'", base, x, y)
	case task.AnimMoving:
		return fmt.Sprintf("%s:x='mod(t*50,w-tw)':y='mod(t*30,h-th)'", base)
	case task.AnimBouncing:
		return fmt.Sprintf("%s:x='abs(mod(t*100,2*(w-tw))-(w-tw))':y='abs(mod(t*70,2*(h-th))-(h-th))'", base)
	case task.AnimFloating:
		return fmt.Sprintf("%s:x='(w-tw)/2+(w/4)*sin(t*0.7)':y='(h-th)/2+(h/4)*cos(t*0.5)'", base)
	case task.AnimScrolling:
		return fmt.Sprintf("%s:x='mod(t*80,w+tw)-tw':y=%s", base, y)
	case task.AnimPulsing:
		// Kept non-time-parameterised beyond the sine term itself,
		// matching the original's observed behaviour rather than
		// introducing a duration-aware envelope it never had.
		return fmt.Sprintf("%s:x=%s:y=%s:alpha='0.3+0.7*abs(sin(t*2))'", base, x, y)
	default: // AnimStatic
		return fmt.Sprintf("%s:x=%s:y=%s", base, x, y)
	}
}

func buildImageWatermarkFilter(cfg struct {
	Text      string
	ImagePath string
	Position  task.WatermarkPosition
	Animation task.WatermarkAnimation
}) string {
	pos, ok := imagePositionMap[cfg.Position]
	if !ok {
		pos = imagePositionMap[task.PosBottomRight]
	}
	x, y := pos[0], pos[1]
	scale := "[1:v]scale=iw*0.15:-1,format=rgba,colorchannelmixer=aa=0.7[wm]"

	var overlay string
	switch cfg.Animation {
	case task.AnimMoving:
		overlay = "[0:v][wm]overlay=x='mod(t*50,main_w-overlay_w)':y='mod(t*30,main_h-overlay_h)'[out]"
	case task.AnimBouncing:
		overlay = "[0:v][wm]overlay=x='abs(mod(t*100,2*(main_w-overlay_w))-(main_w-overlay_w))':y='abs(mod(t*70,2*(main_h-overlay_h))-(main_h-overlay_h))'[out]"
	default:
		overlay = fmt.Sprintf("[0:v][wm]overlay=%s:%s[out]", x, y)
	}
	return scale + ";" + overlay
}
