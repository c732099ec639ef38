package dialog

import (
	"fmt"
	"strconv"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/task"
)

// toolButtons is the tool-selection keyboard every Leech/Vt task opens
// with, per §4.I.
var toolButtons = [][]chatapi.Button{
	{{Label: "Merge Video+Video", Data: string(task.ToolVideoVideo)}, {Label: "Merge Video+Audio", Data: string(task.ToolVideoAudio)}},
	{{Label: "Merge Audio+Audio", Data: string(task.ToolAudioAudio)}, {Label: "Add Subtitle", Data: string(task.ToolVideoSubtitle)}},
	{{Label: "Compress", Data: string(task.ToolCompress)}, {Label: "Watermark", Data: string(task.ToolWatermark)}},
	{{Label: "Trim", Data: string(task.ToolTrim)}, {Label: "Cut", Data: string(task.ToolCut)}},
	{{Label: "Remove Audio", Data: string(task.ToolRemoveAudio)}, {Label: "Extract Audio", Data: string(task.ToolExtractAudio)}},
}

// toolSelectionStep is the leading step of every dialog: dialog.Run
// asks it directly before building the tool-specific sequence with
// BuildSteps. Any later step's Apply can still return
// ErrReopenToolSelection to loop back here, e.g. a future "change tool"
// button embedded in a tool-specific step.
func toolSelectionStep() Step {
	return Step{
		Prompt:  "What would you like to do with these files?",
		Buttons: toolButtons,
		Apply: func(answer string, cfg *task.Config) error {
			cfg.Tool = task.ToolTag(answer)
			return nil
		},
	}
}

// BuildSteps returns the tool-specific prompt sequence for tool. Run
// calls this after asking tool selection itself, so the returned slice
// never includes the tool-selection step.
func BuildSteps(tool task.ToolTag) []Step {
	switch tool {
	case task.ToolCompress:
		return compressSteps()
	case task.ToolWatermark:
		return watermarkSteps()
	case task.ToolVideoSubtitle:
		return subtitleSteps()
	case task.ToolTrim, task.ToolCut:
		return trimCutSteps()
	case task.ToolExtractAudio:
		return extractAudioSteps()
	case task.ToolVideoAudio:
		return mergeSteps()
	default:
		return nil
	}
}

func compressSteps() []Step {
	return []Step{
		{
			Prompt: "Choose a compression mode:",
			Buttons: [][]chatapi.Button{
				{{Label: "High Quality", Data: string(task.CompressHighQuality)}, {Label: "Balanced", Data: string(task.CompressBalanced)}},
				{{Label: "High Compression", Data: string(task.CompressHighCompress)}, {Label: "Target Size", Data: string(task.CompressTargetSize)}},
				{{Label: "Custom CRF", Data: string(task.CompressCustomCRF)}},
			},
			Apply: func(answer string, cfg *task.Config) error {
				cfg.Compress.Mode = task.CompressionMode(answer)
				return nil
			},
		},
		{
			Prompt: "Send the target size in MB, or /skip to keep the default:",
			Apply: func(answer string, cfg *task.Config) error {
				if cfg.Compress.Mode != task.CompressTargetSize || answer == "/skip" {
					return nil
				}
				mb, err := strconv.ParseInt(answer, 10, 64)
				if err != nil {
					return nil
				}
				cfg.Compress.TargetSize = mb * 1024 * 1024
				return nil
			},
		},
		{
			Prompt: "Send a CRF value (0-51), or /skip to keep the default:",
			Apply: func(answer string, cfg *task.Config) error {
				if cfg.Compress.Mode != task.CompressCustomCRF || answer == "/skip" {
					return nil
				}
				crf, err := strconv.Atoi(answer)
				if err != nil {
					return nil
				}
				cfg.Compress.CRF = crf
				return nil
			},
		},
	}
}

func watermarkSteps() []Step {
	return []Step{
		{
			Prompt: "Send the watermark text, or send an image to use as the watermark:",
			Apply: func(answer string, cfg *task.Config) error {
				cfg.Watermark.Text = answer
				return nil
			},
		},
		{
			Prompt: "Choose a position:",
			Buttons: [][]chatapi.Button{
				{{Label: "Top Left", Data: string(task.PosTopLeft)}, {Label: "Top Right", Data: string(task.PosTopRight)}},
				{{Label: "Bottom Left", Data: string(task.PosBottomLeft)}, {Label: "Bottom Right", Data: string(task.PosBottomRight)}},
				{{Label: "Center", Data: string(task.PosCenter)}},
			},
			Apply: func(answer string, cfg *task.Config) error {
				cfg.Watermark.Position = task.WatermarkPosition(answer)
				return nil
			},
		},
		{
			Prompt: "Choose an animation:",
			Buttons: [][]chatapi.Button{
				{{Label: "Static", Data: string(task.AnimStatic)}, {Label: "Fade In", Data: string(task.AnimFadeIn)}},
				{{Label: "Fade In/Out", Data: string(task.AnimFadeInOut)}, {Label: "Moving", Data: string(task.AnimMoving)}},
				{{Label: "Bouncing", Data: string(task.AnimBouncing)}, {Label: "Floating", Data: string(task.AnimFloating)}},
				{{Label: "Scrolling", Data: string(task.AnimScrolling)}, {Label: "Pulsing", Data: string(task.AnimPulsing)}},
			},
			Apply: func(answer string, cfg *task.Config) error {
				cfg.Watermark.Animation = task.WatermarkAnimation(answer)
				return nil
			},
		},
	}
}

func subtitleSteps() []Step {
	return []Step{
		{
			Prompt: "Burn the subtitle into the video, or keep it as a soft (selectable) track?",
			Buttons: [][]chatapi.Button{
				{{Label: "Burn In", Data: "burn"}, {Label: "Soft Subtitle", Data: "soft"}},
			},
			Apply: func(answer string, cfg *task.Config) error {
				cfg.Subtitle.BurnIn = answer == "burn"
				return nil
			},
		},
		{
			Prompt: "Which subtitle input (by position, starting at 1) should be used? Send a number, or /skip for the first:",
			Apply: func(answer string, cfg *task.Config) error {
				if answer == "/skip" {
					return nil
				}
				n, err := strconv.Atoi(answer)
				if err != nil || n < 1 {
					return nil
				}
				cfg.Subtitle.ChosenIndex = n - 1
				return nil
			},
		},
	}
}

func trimCutSteps() []Step {
	return []Step{
		{
			Prompt: "Send the start time as HH:MM:SS:",
			Apply: func(answer string, cfg *task.Config) error {
				if d, ok := parseClock(answer); ok {
					cfg.TrimCut.Start = d
				}
				return nil
			},
		},
		{
			Prompt: "Send the end time as HH:MM:SS:",
			Apply: func(answer string, cfg *task.Config) error {
				if d, ok := parseClock(answer); ok {
					cfg.TrimCut.End = d
				}
				return nil
			},
		},
	}
}

func extractAudioSteps() []Step {
	return []Step{
		{
			Prompt: "Choose an output audio format:",
			Buttons: [][]chatapi.Button{
				{{Label: "MP3", Data: string(task.AudioMP3)}, {Label: "AAC", Data: string(task.AudioAAC)}},
				{{Label: "WAV", Data: string(task.AudioWAV)}, {Label: "Keep Original Codec", Data: string(task.AudioKeepOriginal)}},
			},
			Apply: func(answer string, cfg *task.Config) error {
				cfg.ExtractAudio.Codec = task.AudioCodec(answer)
				return nil
			},
		},
	}
}

func mergeSteps() []Step {
	return []Step{
		{
			Prompt: "Keep the video's original audio track alongside the new one, or drop it?",
			Buttons: [][]chatapi.Button{
				{{Label: "Keep Original", Data: string(task.MergeKeepOriginalAudio)}, {Label: "Drop Original", Data: string(task.MergeDropOriginalAudio)}},
			},
			Apply: func(answer string, cfg *task.Config) error {
				cfg.Merge.AudioMode = task.MergeAudioMode(answer)
				return nil
			},
		},
	}
}

// parseClock parses an HH:MM:SS duration string, the same format
// internal/tools's trim/cut recipes render their ffmpeg -ss/-to
// arguments with.
func parseClock(s string) (time.Duration, bool) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, true
}
