package stills

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/user/replay/pkg/annotations"
	"github.com/user/replay/pkg/ports"
)

// edgeMargin keeps footer text clear of the still border.
const edgeMargin = 24

// ComposeStage draws extracted frames onto captioned canvases.
type ComposeStage struct {
	renderer   ports.Renderer
	log        ports.Logger
	numWorkers int
}

// NewComposeStage creates a new compose stage. numWorkers <= 0 uses
// one worker per CPU.
func NewComposeStage(renderer ports.Renderer, log ports.Logger, numWorkers int) *ComposeStage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &ComposeStage{
		renderer:   renderer,
		log:        log.WithComponent("compose"),
		numWorkers: numWorkers,
	}
}

// indexedStill holds a still with its original index for sorting.
type indexedStill struct {
	index int
	still ComposedStill
}

// Execute composes all stills using a worker pool.
func (s *ComposeStage) Execute(ctx context.Context, input ComposeInput) (ComposeResult, error) {
	if len(input.Frames) == 0 {
		return ComposeResult{Stills: []ComposedStill{}}, nil
	}
	if input.Width <= 0 {
		return ComposeResult{}, fmt.Errorf("still width %d is not usable", input.Width)
	}

	s.log.Debug("Composing %d stills with %d workers", len(input.Frames), s.numWorkers)

	numStills := len(input.Frames)
	jobs := make(chan int, numStills)
	results := make(chan indexedStill, numStills)
	errChan := make(chan error, s.numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < s.numWorkers; w++ {
		wg.Add(1)
		go s.worker(ctx, &wg, input, jobs, results, errChan)
	}

	for i := 0; i < numStills; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
		close(errChan)
	}()

	stills := make([]indexedStill, 0, numStills)
	for result := range results {
		stills = append(stills, result)
	}

	if err := <-errChan; err != nil {
		return ComposeResult{}, err
	}

	sort.Slice(stills, func(i, j int) bool {
		return stills[i].index < stills[j].index
	})

	composed := make([]ComposedStill, len(stills))
	for i, st := range stills {
		composed[i] = st.still
	}

	return ComposeResult{Stills: composed}, nil
}

func (s *ComposeStage) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	input ComposeInput,
	jobs <-chan int,
	results chan<- indexedStill,
	errChan chan<- error,
) {
	defer wg.Done()

	for idx := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		still, err := s.composeStill(input, idx)
		if err != nil {
			select {
			case errChan <- fmt.Errorf("compose still %d: %w", idx, err):
			default:
			}
			return
		}

		results <- indexedStill{index: idx, still: still}
	}
}

// composeStill renders a single still: the frame scaled to the target
// width on top, a footer strip with game time, label and team badge
// underneath.
func (s *ComposeStage) composeStill(input ComposeInput, idx int) (ComposedStill, error) {
	frame := input.Frames[idx]
	ann := frame.Annotation

	frameImg, err := s.renderer.DecodeImage(frame.Data, ports.FormatJPEG)
	if err != nil {
		return ComposedStill{}, fmt.Errorf("decode frame image: %w", err)
	}

	bounds := frameImg.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return ComposedStill{}, fmt.Errorf("frame %d has no pixels", frame.FrameIndex)
	}
	scaledHeight := bounds.Dy() * input.Width / bounds.Dx()

	canvas := s.renderer.CreateCanvas(input.Width, scaledHeight+input.FooterHeight, input.Theme.BackgroundColor)
	canvas.DrawImageScaled(frameImg, 0, 0, input.Width, scaledHeight)
	canvas.DrawRect(0, scaledHeight, input.Width, input.FooterHeight, input.Theme.FooterColor)

	textY := scaledHeight + input.FooterHeight/2

	timeStyle := ports.TextStyle{
		FontSize: float64(input.FooterHeight) * 0.33,
		Color:    input.Theme.TextColor,
		Align:    ports.AlignLeft,
	}
	canvas.DrawText(ann.GameTime, edgeMargin, textY, timeStyle)

	labelStyle := ports.TextStyle{
		FontSize: float64(input.FooterHeight) * 0.4,
		Color:    input.Theme.TextColor,
		Align:    ports.AlignCenter,
	}
	canvas.DrawText(string(ann.Label), input.Width/2, textY, labelStyle)

	if ann.Team != "" {
		s.drawTeamBadge(canvas, input, scaledHeight, ann.Team)
	}

	return ComposedStill{
		Index:      frame.Index,
		Annotation: ann,
		Image:      canvas.ToImage(),
	}, nil
}

// drawTeamBadge draws a colored pill with the team name at the right
// edge of the footer.
func (s *ComposeStage) drawTeamBadge(canvas ports.Canvas, input ComposeInput, scaledHeight int, team annotations.Team) {
	badgeColor := input.Theme.HomeBadgeColor
	if team == annotations.TeamAway {
		badgeColor = input.Theme.AwayBadgeColor
	}

	label := strings.ToUpper(string(team))
	style := ports.TextStyle{
		FontSize: float64(input.FooterHeight) * 0.3,
		Color:    input.Theme.TextColor,
		Align:    ports.AlignCenter,
	}

	textW, _ := canvas.MeasureText(label, style)
	badgeH := input.FooterHeight * 55 / 100
	badgeW := int(textW) + badgeH
	badgeX := input.Width - edgeMargin - badgeW
	badgeY := scaledHeight + (input.FooterHeight-badgeH)/2

	canvas.DrawRoundedRect(badgeX, badgeY, badgeW, badgeH, badgeH/2, badgeColor)
	canvas.DrawText(label, badgeX+badgeW/2, scaledHeight+input.FooterHeight/2, style)
}
