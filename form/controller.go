// Package form holds the state of a QR generator form and drives the encoder
// whenever that state changes.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/openclaw/qrstudio/qr"
)

// Field names accepted by Controller.Update.
const (
	FieldText            = "text"
	FieldErrorCorrection = "error_correction"
	FieldType            = "type"
	FieldQuality         = "quality"
	FieldMargin          = "margin"
	FieldWidth           = "width"
	FieldForeground      = "foreground"
	FieldBackground      = "background"
)

// ErrUnknownField is returned by Update for a field name it does not know.
var ErrUnknownField = errors.New("unknown form field")

// State is a snapshot of the form as displayed.
type State struct {
	Options  qr.Options `json:"options"`
	Label    string     `json:"error_correction_label"`
	DataURI  string     `json:"data_uri,omitempty"`
	Filename string     `json:"filename,omitempty"`
	HasImage bool       `json:"has_image"`
}

// Download is a file ready to be saved by the user.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte

	// Image and Options that produced Data.
	Image   *qr.Image
	Options qr.Options
}

// Controller owns the editable options and the currently displayed image.
//
// Every encode takes a snapshot of the options and a sequence number. Only the
// result of the most recently started encode is ever applied; starting a new
// encode cancels the previous one.
type Controller struct {
	enc    qr.Encoder
	notify Notifier
	log    *slog.Logger

	mu     sync.Mutex
	opts   qr.Options
	label  string
	image  *qr.Image
	source qr.Options
	seq    uint64
	cancel context.CancelFunc
}

// NewController creates a Controller starting from defaults. Text in defaults
// is ignored.
func NewController(enc qr.Encoder, defaults qr.Options, n Notifier, log *slog.Logger) *Controller {
	defaults.Text = ""
	opt, _ := qr.LookupLevel(string(defaults.ErrorCorrection))
	defaults.ErrorCorrection = opt.Value
	return &Controller{
		enc:    enc,
		notify: n,
		log:    log,
		opts:   defaults,
		label:  opt.Label,
	}
}

// State returns a snapshot of the form.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	s := State{Options: c.opts, Label: c.label}
	if c.image != nil {
		s.DataURI = c.image.DataURI()
		s.Filename = c.image.Filename()
		s.HasImage = true
	}
	return s
}

// Update sets one field from its raw input value and, when the text is not
// blank, re-encodes. Numeric fields coerce an empty value to zero; any other
// non-numeric input is reported to the user and leaves the field unchanged.
func (c *Controller) Update(ctx context.Context, field, value string) (State, error) {
	switch field {
	case FieldErrorCorrection:
		c.SetErrorCorrection(value)
	case FieldText, FieldType, FieldQuality, FieldMargin, FieldWidth, FieldForeground, FieldBackground:
		if err := c.set(field, value); err != nil {
			c.log.Debug("form field rejected", "field", field, "error", err)
			c.notify.Notify(Notification{Kind: KindError, Message: MsgInvalidNumeric})
			return c.State(), nil
		}
	default:
		return c.State(), fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	if c.hasText() {
		c.encode(ctx)
	}
	return c.State(), nil
}

func (c *Controller) set(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch field {
	case FieldText:
		c.opts.Text = value
	case FieldType:
		c.opts.Format = qr.Format(value)
		if f, err := qr.ParseFormat(value); err == nil {
			c.opts.Format = f
		}
	case FieldQuality:
		f, err := coerceFloat(value)
		if err != nil {
			return err
		}
		c.opts.Quality = f
	case FieldMargin:
		n, err := coerceInt(value)
		if err != nil {
			return err
		}
		c.opts.Margin = n
	case FieldWidth:
		n, err := coerceInt(value)
		if err != nil {
			return err
		}
		c.opts.Width = n
	case FieldForeground:
		c.opts.Foreground = value
	case FieldBackground:
		c.opts.Background = value
	}
	return nil
}

// SetErrorCorrection selects a level and its label together. Unknown values
// select High.
func (c *Controller) SetErrorCorrection(value string) {
	opt, ok := qr.LookupLevel(value)
	if !ok {
		c.log.Debug("unknown error correction level, using default", "value", value)
	}
	c.mu.Lock()
	c.opts.ErrorCorrection = opt.Value
	c.label = opt.Label
	c.mu.Unlock()
}

// Generate is an explicit submit. Blank text produces a validation
// notification instead of an encode.
func (c *Controller) Generate(ctx context.Context) State {
	if !c.hasText() {
		c.notify.Notify(Notification{Kind: KindError, Message: MsgEmptyText})
		return c.State()
	}
	c.encode(ctx)
	return c.State()
}

// Download returns the displayed image as a file. ok is false when there is
// nothing to download.
func (c *Controller) Download() (d Download, ok bool) {
	c.mu.Lock()
	img, source := c.image, c.source
	c.mu.Unlock()

	if img == nil {
		return Download{}, false
	}
	c.notify.Notify(Notification{Kind: KindSuccess, Message: MsgDownloaded})
	return Download{
		Filename:    img.Filename(),
		ContentType: string(img.Format),
		Data:        img.Data,
		Image:       img,
		Options:     source,
	}, true
}

func (c *Controller) hasText() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(c.opts.Text) != ""
}

func (c *Controller) encode(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	opts := c.opts
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	img, err := c.enc.Encode(ctx, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.log.Debug("discarding superseded encode", "seq", seq, "latest", c.seq)
		return
	}
	c.cancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.log.Debug("encode cancelled", "seq", seq, "error", err)
			return
		}
		c.log.Error("error generating QR code", "error", err, "code", qr.CodeOf(err))
		c.notify.Notify(Notification{Kind: KindError, Message: MsgEncodeFailed})
		return
	}
	c.image = img
	c.source = opts
}

func coerceInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(v, 64)
	if ferr != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return int(f), nil
}

func coerceFloat(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return f, nil
}
