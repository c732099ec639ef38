package dialog

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/task"
)

type scriptedTransport struct {
	textAnswers    []string
	buttonAnswers  []string
	textCalls      int
	buttonCalls    int
}

func (s *scriptedTransport) GetMessages(context.Context, int64, int64, int) ([]chatapi.Message, error) {
	return nil, nil
}
func (s *scriptedTransport) Download(context.Context, int64, int64, io.Writer) error { return nil }
func (s *scriptedTransport) Upload(context.Context, int64, string, string, int64) (int64, error) {
	return 0, nil
}
func (s *scriptedTransport) SendText(context.Context, int64, string) (int64, error) { return 0, nil }
func (s *scriptedTransport) EditText(context.Context, int64, int64, string) error   { return nil }
func (s *scriptedTransport) AskText(_ context.Context, _, _ int64, _ string, _ time.Duration) (string, error) {
	a := s.textAnswers[s.textCalls]
	s.textCalls++
	return a, nil
}
func (s *scriptedTransport) AskButtons(_ context.Context, _, _ int64, _ string, _ [][]chatapi.Button, _ time.Duration) (string, error) {
	a := s.buttonAnswers[s.buttonCalls]
	s.buttonCalls++
	return a, nil
}

func newTestTask() *task.Task {
	return task.New("t1", 1, 1, task.KindLeech, "out.mp4", "/tmp/dialog-test-tasks")
}

func TestRunCompressHighQualitySkipsConditionalSteps(t *testing.T) {
	tk := newTestTask()
	transport := &scriptedTransport{
		buttonAnswers: []string{string(task.ToolCompress), string(task.CompressHighQuality)},
		textAnswers:   []string{"/skip", "/skip"},
	}
	err := Run(context.Background(), transport, tk, BuildSteps)
	require.NoError(t, err)
	assert.Equal(t, task.ToolCompress, tk.Config.Tool)
	assert.Equal(t, task.CompressHighQuality, tk.Config.Compress.Mode)
	assert.Zero(t, tk.Config.Compress.TargetSize)
}

func TestRunCompressTargetSizeAppliesConditionalStep(t *testing.T) {
	tk := newTestTask()
	transport := &scriptedTransport{
		buttonAnswers: []string{string(task.ToolCompress), string(task.CompressTargetSize)},
		textAnswers:   []string{"50", "/skip"},
	}
	err := Run(context.Background(), transport, tk, BuildSteps)
	require.NoError(t, err)
	assert.Equal(t, int64(50*1024*1024), tk.Config.Compress.TargetSize)
}

func TestToolSelectionStepAppliesChosenTool(t *testing.T) {
	var cfg task.Config
	step := toolSelectionStep()
	err := step.Apply(string(task.ToolWatermark), &cfg)
	assert.NoError(t, err)
	assert.Equal(t, task.ToolWatermark, cfg.Tool)
}

func TestRunWatermarkCollectsAllFields(t *testing.T) {
	tk := newTestTask()
	transport := &scriptedTransport{
		buttonAnswers: []string{
			string(task.ToolWatermark),
			string(task.PosBottomRight),
			string(task.AnimPulsing),
		},
		textAnswers: []string{"hello world"},
	}
	err := Run(context.Background(), transport, tk, BuildSteps)
	require.NoError(t, err)
	assert.Equal(t, "hello world", tk.Config.Watermark.Text)
	assert.Equal(t, task.PosBottomRight, tk.Config.Watermark.Position)
	assert.Equal(t, task.AnimPulsing, tk.Config.Watermark.Animation)
}

func TestRunTrimParsesClockTimes(t *testing.T) {
	tk := newTestTask()
	transport := &scriptedTransport{
		buttonAnswers: []string{string(task.ToolTrim)},
		textAnswers:   []string{"00:00:10", "00:01:00"},
	}
	err := Run(context.Background(), transport, tk, BuildSteps)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, tk.Config.TrimCut.Start)
	assert.Equal(t, time.Minute, tk.Config.TrimCut.End)
}

func TestRunCancelReturnsErrCancelled(t *testing.T) {
	tk := newTestTask()
	transport := &scriptedTransport{
		buttonAnswers: []string{"/cancel"},
	}
	err := Run(context.Background(), transport, tk, BuildSteps)
	assert.ErrorIs(t, err, ErrCancelled)
}
