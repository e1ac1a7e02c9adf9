package client

import (
	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg"
)

// View is what the user interface should show.
type View struct {
	// Reveal is true once both sides asked to remove the blur.
	Reveal bool

	// RemoteMedia is true while the partner's media is being received.
	RemoteMedia bool
}

// Reveal combines the local and remote preference.
func Reveal(localWantsReveal, remoteWantsReveal bool) bool {
	return localWantsReveal && remoteWantsReveal
}

// Preferences reconciles the blur preference of both sides.
type Preferences struct {
	sender Sender
	render func(View)

	local       bool
	remote      bool
	remoteMedia bool
}

func NewPreferences(sender Sender, render func(View)) *Preferences {
	return &Preferences{
		sender: sender,
		render: render,
	}
}

func (p *Preferences) View() View {
	return View{
		Reveal:      Reveal(p.local, p.remote),
		RemoteMedia: p.remoteMedia,
	}
}

func (p *Preferences) Local() bool  { return p.local }
func (p *Preferences) Remote() bool { return p.remote }

// ToggleLocal flips the local preference and announces it to the partner.
func (p *Preferences) ToggleLocal() error {
	p.local = !p.local
	p.apply()

	return p.sender.Send(pkg.NewBlurPreference(p.local))
}

// OnRemotePreference records the partner's preference. It never answers.
func (p *Preferences) OnRemotePreference(wantsReveal bool) {
	p.remote = wantsReveal
	p.apply()
}

func (p *Preferences) SetRemoteMedia(present bool) {
	p.remoteMedia = present
	p.apply()
}

// Reset forgets both preferences, a new partner starts blurred.
func (p *Preferences) Reset() {
	p.local = false
	p.remote = false
	p.apply()
}

func (p *Preferences) apply() {
	v := p.View()

	logrus.Debugf("Preferences: local=%t remote=%t reveal=%t media=%t", p.local, p.remote, v.Reveal, v.RemoteMedia)

	if p.render != nil {
		p.render(v)
	}
}
