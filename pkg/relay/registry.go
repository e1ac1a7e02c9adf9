package relay

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg"
)

// Peer is the relay side handle of one client channel.
// Send and Close must not block, they are called with the registry locked.
type Peer interface {
	Send(data []byte)
	Close()
	Info() pkg.Connection
}

type pairing struct {
	Offerer  Peer
	Answerer Peer
	Created  time.Time
}

func (p *pairing) partner(c Peer) Peer {
	if p.Offerer == c {
		return p.Answerer
	}
	return p.Offerer
}

// Registry matches connections pairwise in arrival order and forwards
// messages between partners. At most one connection waits at any time.
type Registry struct {
	mu sync.Mutex

	waiting Peer
	pairs   map[Peer]*pairing
	peers   map[Peer]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		pairs: map[Peer]*pairing{},
		peers: map[Peer]struct{}{},
	}
}

func (r *Registry) OnConnect(c Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.peers[c] = struct{}{}
	metricConnectionsCreated.Inc()

	r.match(c)
}

func (r *Registry) OnMessage(c Peer, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[c]; !ok {
		return
	}

	typ := pkg.PeekType(data)

	if p, ok := r.pairs[c]; ok {
		p.partner(c).Send(data)
		metricMessagesForwarded.WithLabelValues(typeLabel(typ)).Inc()

		// The partner has been told, both sides are free to re-enter matching.
		if typ == pkg.MessageTypeDisconnected {
			r.unpair(p)
			logrus.Infof("Unpaired %s and %s", p.Offerer.Info().ID, p.Answerer.Info().ID)
		}

		return
	}

	if typ == pkg.MessageTypeReady && r.waiting != c {
		r.match(c)
		return
	}

	// The connection stays open but is not matched until it is ready again.
	if typ == pkg.MessageTypeDisconnected && r.waiting == c {
		r.waiting = nil
		logrus.Infof("Connection left the waiting slot: %s", c.Info().ID)
		return
	}

	logrus.Debugf("Dropping %s message from unpaired connection %s", typeLabel(typ), c.Info().ID)
	metricMessagesDropped.WithLabelValues("unpaired").Inc()
}

func (r *Registry) OnDisconnect(c Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[c]; !ok {
		return
	}
	delete(r.peers, c)

	if r.waiting == c {
		r.waiting = nil
		logrus.Infof("Waiting connection left: %s", c.Info().ID)
	}

	if p, ok := r.pairs[c]; ok {
		partner := p.partner(c)
		r.unpair(p)
		partner.Close()

		logrus.Infof("Connection %s left, closing partner %s", c.Info().ID, partner.Info().ID)
	}
}

// Close closes every known connection.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.peers {
		c.Close()
	}
}

func (r *Registry) Stats() pkg.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := pkg.Stats{
		Pairs:       []pkg.Pair{},
		Connections: len(r.peers),
	}

	if r.waiting != nil {
		w := r.waiting.Info()
		s.Waiting = &w
	}

	for c, p := range r.pairs {
		if c != p.Offerer {
			continue
		}

		s.Pairs = append(s.Pairs, pkg.Pair{
			Offerer:  p.Offerer.Info(),
			Answerer: p.Answerer.Info(),
			Paired:   p.Created,
		})
	}

	return s
}

// match parks c in the waiting slot or pairs it with the current occupant.
// The newcomer always becomes the offerer.
func (r *Registry) match(c Peer) {
	if r.waiting == nil {
		r.waiting = c
		r.send(c, pkg.NewWaiting())

		logrus.Infof("Connection waiting: %s", c.Info().ID)
		return
	}

	partner := r.waiting
	r.waiting = nil

	p := &pairing{
		Offerer:  c,
		Answerer: partner,
		Created:  time.Now(),
	}
	r.pairs[c] = p
	r.pairs[partner] = p

	r.send(c, pkg.NewConnected(true))
	r.send(partner, pkg.NewConnected(false))

	metricPairings.Inc()
	logrus.Infof("Paired %s (offerer) with %s", c.Info().ID, partner.Info().ID)
}

func (r *Registry) unpair(p *pairing) {
	delete(r.pairs, p.Offerer)
	delete(r.pairs, p.Answerer)
}

func (r *Registry) send(c Peer, msg *pkg.SignalingMessage) {
	data, err := msg.Encode()
	if err != nil {
		logrus.Errorf("Failed to encode %s message: %s", msg.Type, err)
		return
	}

	c.Send(data)
}

func typeLabel(t pkg.MessageType) string {
	if !t.Known() {
		return "unknown"
	}
	return string(t)
}
