package service

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/model"
	"lane-detector-go/internal/render"
	"lane-detector-go/internal/repository"
	"lane-detector-go/pkg/models"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSegmentSource struct {
	resp *models.SegmentAPIResponse
	err  error
}

func (f *fakeSegmentSource) DetectSegments(context.Context, []byte, string) (*models.SegmentAPIResponse, error) {
	return f.resp, f.err
}

func (f *fakeSegmentSource) CheckHealth(context.Context) error {
	return f.err
}

// две линии: левая y = -0.75x + 900, правая y = 0.75x
var bothSides = []models.Segment{
	{X1: 200, Y1: 750, X2: 400, Y2: 600},
	{X1: 300, Y1: 675, X2: 500, Y2: 525},
	{X1: 800, Y1: 600, X2: 1000, Y2: 750},
	{X1: 700, Y1: 525, X2: 900, Y2: 675},
}

func newTestService(t *testing.T, opts Options, source SegmentSource) (*LaneService, repository.FrameRepository) {
	t.Helper()
	logger, _ := test.NewNullLogger()

	detector, err := lane.NewDetector(lane.DefaultOptions(), logger)
	require.NoError(t, err)

	if opts.StaticDir == "" {
		opts.StaticDir = t.TempDir()
	}
	repo := repository.NewMemoryFrameRepository(0, nil)
	svc := NewLaneService(detector, render.NewRenderer(render.DefaultLaneStyle()), repo, source, logger, opts)
	return svc, repo
}

func TestDetectSuccessRendersOverlay(t *testing.T) {
	svc, repo := newTestService(t, Options{}, nil)

	resp, err := svc.Detect(context.Background(), models.DetectRequest{
		Width: 1280, Height: 720, Segments: bothSides, Render: true,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, resp.Status)
	require.NotNil(t, resp.Left.Geometry)
	require.NotNil(t, resp.Right.Geometry)
	assert.InDelta(t, 240, resp.Left.Geometry.Bottom.X, 1e-9)
	assert.InDelta(t, 960, resp.Right.Geometry.Bottom.X, 1e-9)
	assert.NotEmpty(t, resp.OverlayURL)

	frame, err := repo.GetByID(resp.FrameID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, frame.Status)
	require.Len(t, frame.Lanes, 2)
	assert.True(t, frame.Lanes[0].HasLine)

	f, err := os.Open(frame.OverlayPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 1280, img.Bounds().Dx())
	assert.Equal(t, 720, img.Bounds().Dy())
}

func TestDetectEmptySegments(t *testing.T) {
	dir := t.TempDir()
	svc, repo := newTestService(t, Options{StaticDir: dir}, nil)

	resp, err := svc.Detect(context.Background(), models.DetectRequest{Width: 640, Height: 480, Render: true})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, resp.Status)
	assert.Equal(t, "insufficient_data", resp.Left.ErrorKind)
	assert.Equal(t, "insufficient_data", resp.Right.ErrorKind)
	assert.Empty(t, resp.OverlayURL)

	// холст не создавался, файлов нет
	_, err = os.Stat(filepath.Join(dir, overlaysDir))
	assert.True(t, os.IsNotExist(err))

	frame, err := repo.GetByID(resp.FrameID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, frame.Status)
}

func TestDetectOneSideAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t, Options{}, nil)

	resp, err := svc.Detect(context.Background(), models.DetectRequest{
		Width: 1280, Height: 720, Segments: bothSides[:2], Render: true,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, resp.Status)
	assert.NotNil(t, resp.Left.Geometry)
	assert.Equal(t, "insufficient_data", resp.Right.ErrorKind)
	assert.Empty(t, resp.OverlayURL)
}

func TestDetectOneSidePartial(t *testing.T) {
	svc, _ := newTestService(t, Options{PartialLanes: true, DrawRawSegments: true}, nil)

	resp, err := svc.Detect(context.Background(), models.DetectRequest{
		Width: 1280, Height: 720, Segments: bothSides[:2], Render: true,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, resp.Status)
	assert.NotEmpty(t, resp.OverlayURL)

	path, err := svc.OverlayPath(resp.FrameID)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestDetectInvalidRequest(t *testing.T) {
	svc, _ := newTestService(t, Options{}, nil)

	_, err := svc.Detect(context.Background(), models.DetectRequest{Width: 0, Height: 720})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	clip := 50.0
	_, err = svc.Detect(context.Background(), models.DetectRequest{Width: 10, Height: 10, Clip: &clip})
	assert.ErrorIs(t, err, lane.ErrInvalidConfiguration)
}

func TestDetectOversizedFrame(t *testing.T) {
	svc, _ := newTestService(t, Options{}, nil)

	_, err := svc.Detect(context.Background(), models.DetectRequest{
		Width: 1 << 40, Height: 1 << 40, Segments: bothSides, Render: true,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	small, _ := newTestService(t, Options{MaxFrameSide: 1000}, nil)
	_, err = small.Detect(context.Background(), models.DetectRequest{Width: 1280, Height: 720, Segments: bothSides})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = small.Detect(context.Background(), models.DetectRequest{Width: 1000, Height: 720, Segments: bothSides})
	assert.NoError(t, err)
}

func TestDetectNonFiniteSegmentIsOmitted(t *testing.T) {
	svc, _ := newTestService(t, Options{PartialLanes: true}, nil)

	resp, err := svc.Detect(context.Background(), models.DetectRequest{
		Width: 640, Height: 480, Render: true,
		Segments: []models.Segment{
			{X1: 0, Y1: 0, X2: 1e-320, Y2: 1},
			{X1: 200, Y1: 750, X2: 400, Y2: 600},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, resp.Status)
	assert.Nil(t, resp.Right.Line)
	assert.Nil(t, resp.Right.Geometry)
	assert.Equal(t, "insufficient_data", resp.Right.ErrorKind)
	require.NotNil(t, resp.Left.Geometry)
	assert.NotEmpty(t, resp.OverlayURL)

	_, err = json.Marshal(resp)
	assert.NoError(t, err)
}

type failingFrameRepository struct {
	repository.FrameRepository
}

func (failingFrameRepository) Create(*model.Frame) error {
	return errors.New("connection lost")
}

func TestDetectSaveFailureRemovesOverlay(t *testing.T) {
	logger, _ := test.NewNullLogger()
	detector, err := lane.NewDetector(lane.DefaultOptions(), logger)
	require.NoError(t, err)

	dir := t.TempDir()
	svc := NewLaneService(detector, render.NewRenderer(render.DefaultLaneStyle()), failingFrameRepository{},
		nil, logger, Options{StaticDir: dir})

	_, err = svc.Detect(context.Background(), models.DetectRequest{
		Width: 1280, Height: 720, Segments: bothSides, Render: true,
	})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, overlaysDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEvictedFrameOverlayRemoved(t *testing.T) {
	logger, _ := test.NewNullLogger()
	detector, err := lane.NewDetector(lane.DefaultOptions(), logger)
	require.NoError(t, err)

	repo := repository.NewMemoryFrameRepository(1, OverlayCleanup(logger))
	svc := NewLaneService(detector, render.NewRenderer(render.DefaultLaneStyle()), repo,
		nil, logger, Options{StaticDir: t.TempDir()})

	req := models.DetectRequest{Width: 1280, Height: 720, Segments: bothSides, Render: true}
	first, err := svc.Detect(context.Background(), req)
	require.NoError(t, err)
	firstPath, err := svc.OverlayPath(first.FrameID)
	require.NoError(t, err)

	// кадры должны различаться по времени создания
	time.Sleep(2 * time.Millisecond)

	second, err := svc.Detect(context.Background(), req)
	require.NoError(t, err)
	secondPath, err := svc.OverlayPath(second.FrameID)
	require.NoError(t, err)

	assert.NoFileExists(t, firstPath)
	assert.FileExists(t, secondPath)
	_, err = svc.GetFrame(first.FrameID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDetectClipOverride(t *testing.T) {
	svc, repo := newTestService(t, Options{}, nil)

	clip := 0.0
	resp, err := svc.Detect(context.Background(), models.DetectRequest{
		Width: 1280, Height: 720, Segments: bothSides, Clip: &clip,
	})
	require.NoError(t, err)

	frame, err := repo.GetByID(resp.FrameID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, frame.Clip)
}

func TestAnalyzeImage(t *testing.T) {
	source := &fakeSegmentSource{resp: &models.SegmentAPIResponse{
		Status: "success", Width: 1280, Height: 720, Segments: bothSides,
	}}
	svc, _ := newTestService(t, Options{}, source)

	resp, err := svc.AnalyzeImage(context.Background(), []byte("img"), "frame.jpg", false)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Empty(t, resp.OverlayURL)
}

func TestAnalyzeImageSourceError(t *testing.T) {
	svc, _ := newTestService(t, Options{}, &fakeSegmentSource{err: errors.New("connection refused")})

	_, err := svc.AnalyzeImage(context.Background(), []byte("img"), "frame.jpg", false)
	assert.Error(t, err)
}

func TestDeleteFrameRemovesOverlay(t *testing.T) {
	svc, _ := newTestService(t, Options{}, nil)

	resp, err := svc.Detect(context.Background(), models.DetectRequest{
		Width: 1280, Height: 720, Segments: bothSides, Render: true,
	})
	require.NoError(t, err)
	path, err := svc.OverlayPath(resp.FrameID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFrame(resp.FrameID))
	assert.NoFileExists(t, path)

	_, err = svc.GetFrame(resp.FrameID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListFrames(t *testing.T) {
	svc, _ := newTestService(t, Options{}, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Detect(context.Background(), models.DetectRequest{Width: 1280, Height: 720, Segments: bothSides})
		require.NoError(t, err)
	}
	_, err := svc.Detect(context.Background(), models.DetectRequest{Width: 1280, Height: 720})
	require.NoError(t, err)

	list, err := svc.ListFrames(0, 0, StatusSuccess)
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Size)
}

func TestCheckHealth(t *testing.T) {
	svc, _ := newTestService(t, Options{Version: "1.0.0"}, &fakeSegmentSource{})
	svc.SetDatabaseCheck(func() error { return nil })

	health := svc.CheckHealth(context.Background())
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.SegmentSource)

	svc.SetDatabaseCheck(func() error { return errors.New("down") })
	health = svc.CheckHealth(context.Background())
	assert.Equal(t, "unhealthy", health.Status)
	assert.False(t, health.Database)
}
