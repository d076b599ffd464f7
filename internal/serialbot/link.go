// Package serialbot talks to a microcontroller-driven robot over a serial
// line.
//
// The protocol is newline delimited ASCII:
//
//	C        request a reading; the board answers "r g b" or "E <reason>"
//	L <pct>  set the left motor duty cycle
//	R <pct>  set the right motor duty cycle
//	S L|R    stop one motor
//
// Motor commands get no reply, so a stop never queues behind a pending
// sensor answer.
package serialbot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/san-kum/linebot/internal/color"
	"github.com/san-kum/linebot/internal/loop"
)

const DefaultBaudRate = 115200

var ErrDevice = errors.New("serialbot: device reported an error")

// Link is one serial connection. Reads happen on the loop goroutine; writes
// are serialized so the watcher can stop motors at any time.
type Link struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
	wmu    sync.Mutex
}

// Open opens a serial port at baud, 8N1.
func Open(name string, baud int) (*Link, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open serial port %s", name)
	}
	return NewLink(port), nil
}

func NewLink(rw io.ReadWriteCloser) *Link {
	return &Link{
		port:   rw,
		reader: bufio.NewReader(rw),
	}
}

func (l *Link) send(line string) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()

	if _, err := io.WriteString(l.port, line+"\n"); err != nil {
		return pkgerrors.Wrapf(err, "failed to send %q", line)
	}
	return nil
}

// ReadRawColor requests one reading and blocks until the board answers.
func (l *Link) ReadRawColor() (color.RawColor, error) {
	if err := l.send("C"); err != nil {
		return color.RawColor{}, err
	}

	line, err := l.reader.ReadString('\n')
	if err != nil {
		return color.RawColor{}, pkgerrors.Wrap(err, "failed to read sensor reply")
	}
	return parseReading(strings.TrimSpace(line))
}

func parseReading(line string) (color.RawColor, error) {
	if strings.HasPrefix(line, "E") {
		return color.RawColor{}, fmt.Errorf("%w: %s", ErrDevice, strings.TrimSpace(strings.TrimPrefix(line, "E")))
	}

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return color.RawColor{}, fmt.Errorf("serialbot: malformed reading %q", line)
	}
	var v [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return color.RawColor{}, fmt.Errorf("serialbot: malformed reading %q", line)
		}
		v[i] = n
	}
	return color.RawColor{R: v[0], G: v[1], B: v[2]}, nil
}

func (l *Link) Motor(side loop.Side) *Motor {
	return &Motor{link: l, side: side}
}

func (l *Link) Drive() loop.Drive {
	return loop.Drive{Left: l.Motor(loop.Left), Right: l.Motor(loop.Right)}
}

func (l *Link) Close() error {
	return l.port.Close()
}

// Motor is one side of the remote drive.
type Motor struct {
	link *Link
	side loop.Side
}

func (m *Motor) code() string {
	if m.side == loop.Left {
		return "L"
	}
	return "R"
}

func (m *Motor) SetSpeed(pct int) error {
	if pct < -100 || pct > 100 {
		return fmt.Errorf("serialbot: %s speed %d out of range", m.side, pct)
	}
	return m.link.send(fmt.Sprintf("%s %d", m.code(), pct))
}

// Stop sends a stop for this side. The board treats repeats as no-ops.
func (m *Motor) Stop() error {
	return m.link.send("S " + m.code())
}
