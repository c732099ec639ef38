package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"

	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

type crfPreset struct {
	crf    int
	preset string
}

var compressPresets = map[task.CompressionMode]crfPreset{
	task.CompressHighQuality:  {crf: 18, preset: "medium"},
	task.CompressBalanced:     {crf: 23, preset: "medium"},
	task.CompressHighCompress: {crf: 28, preset: "slow"},
}

// minVideoBitrateKbps is the floor applied to target-size mode's
// computed bitrate (§4.F: "clamped to a floor").
const minVideoBitrateKbps = 100

// compressVideo implements §4.F's Compress tool across its five modes.
// Runs once per input when multiple videos were supplied, suffixing
// outputs per the count-mismatch rule.
func compressVideo(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	if len(downloaded) == 0 {
		return nil, xerrors.Newf("compress requires at least 1 input").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	var outputs []Output
	total := len(downloaded)
	for i, d := range downloaded {
		if err := checkCancel(t); err != nil {
			return nil, err
		}

		outName := numberedOutput(forceExtension(t.OutputName, ".mp4"), i, total)
		outPath := filepath.Join(t.WorkDir, outName)

		sink("compressing video")

		var args []string
		switch t.Config.Compress.Mode {
		case task.CompressTargetSize:
			built, err := buildTargetSizeArgs(ctx, d.Path, outPath, t.Config.Compress.TargetSize)
			if err != nil {
				// Falls back to balanced mode on probe failure per §4.F.
				logger.Warn("target-size probe failed, falling back to balanced", "task_id", t.ID, "error", err)
				args = crfArgs(d.Path, outPath, compressPresets[task.CompressBalanced])
			} else {
				args = built
			}
		case task.CompressCustomCRF:
			args = crfArgs(d.Path, outPath, crfPreset{crf: t.Config.Compress.CRF, preset: "faster"})
		default:
			preset, ok := compressPresets[t.Config.Compress.Mode]
			if !ok {
				preset = compressPresets[task.CompressBalanced]
			}
			args = crfArgs(d.Path, outPath, preset)
		}

		if err := runFFmpeg(ctx, t, "compress", args); err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Path: outPath})
	}
	return outputs, nil
}

func crfArgs(input, output string, preset crfPreset) []string {
	return []string{
		"-y", "-i", input,
		"-c:v", "libx264", "-crf", strconv.Itoa(preset.crf), "-preset", preset.preset,
		"-c:a", "aac", "-b:a", "128k",
		output,
	}
}

type ffprobeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		BitRate   string `json:"bit_rate"`
	} `json:"streams"`
}

// buildTargetSizeArgs computes a video bitrate from a target byte
// size: total_bits/duration - audio_bitrate, floored at
// minVideoBitrateKbps, per §4.F's formula.
func buildTargetSizeArgs(ctx context.Context, input, output string, targetBytes int64) ([]string, error) {
	if targetBytes <= 0 {
		targetBytes = 100 * 1024 * 1024
	}

	raw, err := probeJSON(ctx, input)
	if err != nil {
		return nil, err
	}
	var info ffprobeFormat
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategorySubprocess).Component("tools").Build()
	}
	duration, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return nil, xerrors.Newf("could not determine duration for target-size compression").
			Category(xerrors.CategorySubprocess).Component("tools").Build()
	}

	audioBitrate := 128000.0
	for _, s := range info.Streams {
		if s.CodecType == "audio" && s.BitRate != "" {
			if v, err := strconv.ParseFloat(s.BitRate, 64); err == nil {
				audioBitrate = v
			}
			break
		}
	}

	targetBits := float64(targetBytes) * 8
	totalBitrate := targetBits / duration
	videoBitrateKbps := int((totalBitrate - audioBitrate) / 1000)
	if videoBitrateKbps < minVideoBitrateKbps {
		videoBitrateKbps = minVideoBitrateKbps
	}

	return []string{
		"-y", "-i", input,
		"-c:v", "libx264", "-b:v", strconv.Itoa(videoBitrateKbps) + "k", "-preset", "medium",
		"-c:a", "aac", "-b:a", "128k",
		output,
	}, nil
}
