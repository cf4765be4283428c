package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/qnkhuat/openingrush/pkg/config"
	"github.com/qnkhuat/openingrush/pkg/gui"
	"github.com/qnkhuat/openingrush/pkg/presets"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

var playAsOptions = []string{"White", "Black"}

// Client is the terminal trainer: a board, the line form, the preset list
// and a feedback line. Everything runs on the tview event goroutine.
type Client struct {
	App     *tview.Application
	Board   *gui.Board
	Layout  *tview.Grid
	Form    *tview.Form
	Presets *tview.List
	Message *tview.TextView
	Status  *tview.TextView
	Tracker *trainer.LineTracker
	Clock   *Clock

	playAs  *tview.DropDown
	pgn     *tview.InputField
	catalog *presets.Catalog
	log     *zap.SugaredLogger
}

func NewClient(cfg *config.Config, catalog *presets.Catalog, theme gui.Theme, log *zap.SugaredLogger) *Client {
	app := tview.NewApplication()
	cl := &Client{
		App:     app,
		Board:   gui.NewBoard(theme),
		Message: tview.NewTextView().SetDynamicColors(true).SetWrap(true),
		Status:  tview.NewTextView().SetTextAlign(tview.AlignRight),
		catalog: catalog,
		log:     log,
	}
	cl.Message.SetTextColor(theme.Msg)
	cl.Clock = NewClock(func(f func()) { app.QueueUpdateDraw(f) })
	cl.Tracker = NewTracker(cfg, cl.Board, cl.Clock, trainer.FeedbackFunc(cl.feedback), log)

	cl.playAs = tview.NewDropDown().
		SetLabel(string(ActionPlayAs) + " ").
		SetOptions(playAsOptions, nil).
		SetCurrentOption(0)
	cl.pgn = tview.NewInputField().
		SetLabel(string(ActionPGN) + " ").
		SetPlaceholder("1. e4 e5 2. Nf3 *")
	cl.Form = tview.NewForm().
		AddFormItem(cl.playAs).
		AddFormItem(cl.pgn).
		AddButton(string(ActionStart), func() { cl.Start() }).
		AddButton(string(ActionFlip), cl.Flip).
		AddButton(string(ActionQuit), app.Stop)
	cl.Form.SetBorder(true).SetTitle(" Line ")

	cl.Presets = tview.NewList()
	for _, p := range catalog.All() {
		cl.Presets.AddItem(p.Name, p.Color, 0, nil)
	}
	cl.Presets.SetSelectedFunc(func(_ int, name, _ string, _ rune) {
		cl.UsePreset(name)
		app.SetFocus(cl.Form)
	})
	cl.Presets.SetBorder(true).SetTitle(" " + string(ActionPresets) + " ")

	cl.Board.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			app.SetFocus(cl.Form)
		}
	})
	cl.Form.SetCancelFunc(func() { app.SetFocus(cl.Presets) })

	side := tview.NewGrid().
		SetRows(9, -1).
		AddItem(cl.Form, 0, 0, 1, 1, 0, 0, true).
		AddItem(cl.Presets, 1, 0, 1, 1, 0, 0, false)

	cl.Layout = tview.NewGrid().
		SetRows(-1, 10, 3, 1, -1).
		SetColumns(-1, 30, 50, -1).
		AddItem(tview.NewBox(), 0, 0, 1, 4, 0, 0, false).
		AddItem(cl.Board, 1, 1, 1, 1, 0, 0, false).
		AddItem(side, 1, 2, 3, 1, 0, 0, true).
		AddItem(cl.Message, 2, 1, 1, 1, 0, 0, false).
		AddItem(cl.Status, 3, 1, 1, 1, 0, 0, false).
		AddItem(tview.NewBox(), 4, 0, 1, 4, 0, 0, false)

	cl.Message.SetText("Pick a preset or paste a PGN, then press Start")
	return cl
}

// Player is the colour selected in the form.
func (cl *Client) Player() trainer.Color {
	i, _ := cl.playAs.GetCurrentOption()
	if i == 1 {
		return trainer.Black
	}
	return trainer.White
}

// UsePreset fills the form with the named preset.
func (cl *Client) UsePreset(name string) bool {
	p, ok := cl.catalog.Find(name)
	if !ok {
		return false
	}
	cl.pgn.SetText(p.PGN)
	if p.Player() == trainer.Black {
		cl.playAs.SetCurrentOption(1)
	} else {
		cl.playAs.SetCurrentOption(0)
	}
	return true
}

// Start loads the form's line and starts training it.
func (cl *Client) Start() error {
	prev := cl.Tracker.Player()
	cl.Tracker.SetPlayer(cl.Player())
	err := cl.Tracker.Load(cl.pgn.GetText())
	if err != nil {
		cl.Tracker.SetPlayer(prev)
	} else {
		err = cl.Tracker.Start()
	}
	if err != nil {
		cl.log.Infow("Cannot start line", "error", err)
		cl.Message.SetText(LoadErrorText(err))
		return err
	}
	cl.App.SetFocus(cl.Board)
	return nil
}

func (cl *Client) Flip() {
	cl.Board.SetOrientation(cl.Board.Orientation().Other())
}

func (cl *Client) feedback(n trainer.Notice) {
	cl.Message.SetText(FeedbackText(n, cl.Tracker.Stats()))
}

func (cl *Client) tick(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cl.App.QueueUpdateDraw(func() {
				cl.Status.SetText(fmt.Sprintf("⏱  %s", cl.Clock))
			})
		}
	}
}

// Run shows the trainer until the user quits.
func (cl *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer cl.Clock.Pause()

	cl.Tracker.Reset()
	go cl.tick(ctx)
	go func() {
		<-ctx.Done()
		cl.App.Stop()
	}()
	return cl.App.SetRoot(cl.Layout, true).EnableMouse(true).Run()
}
