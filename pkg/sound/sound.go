package sound

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

const queueTimeout = 10 * time.Millisecond

type Interface interface {
	Play(path string)
	Close()
}

// Player plays WAV files on a background goroutine.  Starting a new sound
// cuts off the one that's playing.
type Player struct {
	soundsToPlay chan string
}

func NewPlayer() *Player {
	p := newPlayer()
	go p.loop()
	return p
}

func newPlayer() *Player {
	return &Player{soundsToPlay: make(chan string)}
}

func (p *Player) loop() {
	defer func() {
		recover()
		p.drain()
	}()

	sampleRate := beep.SampleRate(44100)
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/5)); err != nil {
		fmt.Println("Failed to open speaker", err)
		p.drain()
		return
	}

	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	for path := range p.soundsToPlay {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			_ = s.Close()
			s = nil
		}

		var err error
		s, err = open(path)
		if err != nil {
			fmt.Println("Unable to play", path, err)
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}

func (p *Player) drain() {
	for path := range p.soundsToPlay {
		fmt.Println("Unable to play", path)
	}
}

func open(path string) (beep.StreamSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sound")
	}
	s, _, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return s, nil
}

// Play queues a sound without blocking the caller for more than a few
// milliseconds.
func (p *Player) Play(path string) {
	defer func() {
		recover() // Don't die if the channel is already closed.
	}()
	select {
	case p.soundsToPlay <- path:
	case <-time.After(queueTimeout):
		fmt.Println("Timed out trying to play sound:", path)
	}
}

func (p *Player) Close() {
	close(p.soundsToPlay)
}

type dummyPlayer struct{}

func Dummy() Interface {
	return dummyPlayer{}
}

func (dummyPlayer) Play(path string) {
	fmt.Println("Dummy sound:", path)
}

func (dummyPlayer) Close() {}
