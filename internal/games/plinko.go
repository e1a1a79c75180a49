package games

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drachma-games/casino/internal/engine"
	"github.com/drachma-games/casino/internal/ledger"
)

const (
	plinkoRows        = 16
	plinkoSlots       = 15
	plinkoHops        = plinkoRows - 3 // peg-walk hops after the start peg
	plinkoMaxInFlight = 100

	// Board geometry. Only the horizontal slot intervals matter for
	// resolution; the rest paces the physics integration.
	plinkoWidth       = 760.0
	plinkoHeight      = 600.0
	plinkoSidePadding = 12.0
	plinkoPegRadius   = 6.0
	plinkoBallRadius  = 8.0

	plinkoAutoBatch    = 3
	plinkoAutoInterval = 200 * time.Millisecond
	plinkoPhysicsEvery = 10 // every Nth drop uses the continuous model
)

// BallModel selects how a ball's slot is resolved.
type BallModel string

const (
	// ModelPegWalk hops peg to peg with a fair coin flip per row.
	ModelPegWalk BallModel = "pegwalk"
	// ModelPhysics integrates gravity and peg collisions with jitter.
	ModelPhysics BallModel = "physics"
)

// AutoState is the auto-drop loop's explicit state machine.
type AutoState int

const (
	AutoStopped AutoState = iota
	AutoRunning
	AutoPausedForFunds
	AutoAwaitingPayoutThenResume
	AutoAwaitingPayoutThenStop
)

func (s AutoState) String() string {
	switch s {
	case AutoStopped:
		return "stopped"
	case AutoRunning:
		return "running"
	case AutoPausedForFunds:
		return "pausedForFunds"
	case AutoAwaitingPayoutThenResume:
		return "awaitingPayoutThenResume"
	case AutoAwaitingPayoutThenStop:
		return "awaitingPayoutThenStop"
	default:
		return "unknown"
	}
}

// Point is a sampled ball position for presentation playback.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlinkoBall is a dropped ball with its already-resolved slot. The payout
// is not credited until the ball lands (Land), so presentation can stage
// the fall against final state.
type PlinkoBall struct {
	ID         int64     `json:"id"`
	Model      BallModel `json:"model"`
	Bet        int64     `json:"bet"`
	Slot       int       `json:"slot"`
	Multiplier float64   `json:"multiplier"`
	Payout     int64     `json:"payout"`
	Path       []Point   `json:"path,omitempty"`
}

// Plinko drops balls through the peg lattice and settles payouts either
// immediately (manual) or through the auto-mode accumulator.
type Plinko struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	rng    RNG
	logger *log.Logger

	bet        int64
	dropCount  int
	nextBallID int64
	inFlight   map[int64]*PlinkoBall

	autoMode    bool
	autoState   AutoState
	accumulated int64
	stopCh      chan struct{}
	generation  int

	pegRows    [][]float64 // x coordinate per peg, by row
	pegRowYs   []float64
	slotEdges  []float64 // slot i spans [slotEdges[i], slotEdges[i+1])
	spacingX   float64
	spacingY   float64
	lastRowY   float64
	resolveY   float64
	lastRowPeg []float64
}

// NewPlinko creates a board bound to the session ledger and RNG.
func NewPlinko(l *ledger.Ledger, rng RNG, logger *log.Logger) *Plinko {
	p := &Plinko{
		ledger:    l,
		rng:       rng,
		logger:    logger,
		bet:       10,
		inFlight:  make(map[int64]*PlinkoBall),
		autoState: AutoStopped,
	}
	p.initPegs()
	return p
}

// initPegs lays out the triangular lattice: rows 2..15, row r holding r+1
// pegs with constant horizontal spacing and equilateral vertical spacing.
func (p *Plinko) initPegs() {
	pegCols := plinkoSlots + 1
	p.spacingX = (plinkoWidth - 2*plinkoSidePadding) / float64(pegCols-1)
	p.spacingY = p.spacingX * math.Sqrt(3) / 2
	totalHeight := p.spacingY * float64(plinkoRows-1)
	yOffset := (plinkoHeight - totalHeight) / 2

	for row := 2; row < plinkoRows; row++ {
		pegsInRow := row + 1
		y := yOffset + float64(row)*p.spacingY
		totalWidth := float64(pegsInRow-1) * p.spacingX
		startX := (plinkoWidth - totalWidth) / 2
		xs := make([]float64, pegsInRow)
		for col := 0; col < pegsInRow; col++ {
			xs[col] = startX + float64(col)*p.spacingX
		}
		p.pegRows = append(p.pegRows, xs)
		p.pegRowYs = append(p.pegRowYs, y)
	}
	p.lastRowPeg = p.pegRows[len(p.pegRows)-1]
	p.lastRowY = p.pegRowYs[len(p.pegRowYs)-1]
	p.resolveY = p.lastRowY + p.spacingY/2

	// Slot i sits between last-row pegs i and i+1.
	p.slotEdges = make([]float64, plinkoSlots+1)
	for i := 0; i <= plinkoSlots; i++ {
		p.slotEdges[i] = p.lastRowPeg[0] + float64(i)*p.spacingX
	}
}

// SetBet sets the per-ball wager, clamped to [10, 1000] as the board's
// bet adjuster allows. Rejected while the auto loop is active.
func (p *Plinko) SetBet(amount int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.autoState != AutoStopped {
		return fmt.Errorf("%w: cannot change bet while auto mode is active", ErrInvalidAction)
	}
	if amount < 10 || amount > 1000 {
		return fmt.Errorf("%w: bet must be between 10 and 1000", ErrInvalidBet)
	}
	p.bet = amount
	return nil
}

// Bet returns the current per-ball wager.
func (p *Plinko) Bet() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bet
}

// InFlight reports how many dropped balls have not landed yet.
func (p *Plinko) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

// Accumulated returns winnings held back by auto mode, not yet flushed.
func (p *Plinko) Accumulated() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accumulated
}

// AutoState returns the auto loop's current state.
func (p *Plinko) AutoState() AutoState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoState
}

// SetAutoMode switches between manual and auto settlement. Turning auto
// off while the loop runs stops it first.
func (p *Plinko) SetAutoMode(auto bool) {
	p.mu.Lock()
	if !auto && p.autoState != AutoStopped {
		p.mu.Unlock()
		p.StopAuto()
		p.mu.Lock()
	}
	p.autoMode = auto
	p.mu.Unlock()
}

// DropBall debits the bet and resolves one ball to its slot. The payout is
// computed now but credited on Land. Every plinkoPhysicsEvery-th drop uses
// the continuous physics model; the rest use the peg walk.
func (p *Plinko) DropBall() (*PlinkoBall, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropBallLocked()
}

func (p *Plinko) dropBallLocked() (*PlinkoBall, error) {
	if len(p.inFlight) >= plinkoMaxInFlight {
		return nil, fmt.Errorf("%w: %d balls already in flight", ErrInvalidAction, len(p.inFlight))
	}
	if p.bet > p.ledger.Balance() {
		return nil, fmt.Errorf("%w: bet %d exceeds balance", ErrInsufficientBalance, p.bet)
	}
	if err := p.ledger.Debit(p.bet, "plinko:bet"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	}

	p.dropCount++
	model := ModelPegWalk
	if p.dropCount%plinkoPhysicsEvery == 0 {
		model = ModelPhysics
	}

	stream := p.rng.NextStream()
	var slot int
	var path []Point
	if model == ModelPegWalk {
		slot, path = p.resolvePegWalk(stream)
	} else {
		slot, path = p.resolvePhysics(stream)
	}

	multiplier := plinkoPayouts[slot]
	p.nextBallID++
	ball := &PlinkoBall{
		ID:         p.nextBallID,
		Model:      model,
		Bet:        p.bet,
		Slot:       slot,
		Multiplier: multiplier,
		Payout:     payout(p.bet, decimal.NewFromFloat(multiplier)),
		Path:       path,
	}
	p.inFlight[ball.ID] = ball
	return ball, nil
}

// Land settles a resolved ball: while the auto loop is active the payout
// joins the accumulator, otherwise it credits the balance at once. When
// the last in-flight ball lands, any pending flush-and-resume or
// flush-and-stop transition fires.
func (p *Plinko) Land(ballID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.landLocked(ballID) {
		return fmt.Errorf("%w: unknown or already landed ball %d", ErrInvalidAction, ballID)
	}
	return nil
}

func (p *Plinko) landLocked(ballID int64) bool {
	ball, ok := p.inFlight[ballID]
	if !ok {
		return false
	}
	delete(p.inFlight, ballID)

	// Accumulate only while the auto loop is active; with the loop stopped
	// there is no later flush, so the payout credits directly even when
	// auto mode is still switched on.
	if p.autoState != AutoStopped {
		p.accumulated += ball.Payout
	} else if ball.Payout > 0 {
		p.ledger.Credit(ball.Payout, "plinko:payout")
	}

	if len(p.inFlight) == 0 {
		p.onAllLanded()
	}
	return true
}

// onAllLanded runs the deferred auto transitions once nothing is airborne.
func (p *Plinko) onAllLanded() {
	switch p.autoState {
	case AutoAwaitingPayoutThenStop:
		p.flushLocked()
		p.autoState = AutoStopped
	case AutoAwaitingPayoutThenResume, AutoPausedForFunds:
		p.flushLocked()
		if p.ledger.Balance() >= p.bet {
			p.autoState = AutoRunning
			p.startLoopLocked()
		} else {
			p.autoState = AutoStopped
			p.logger.Printf("plinko auto halted balance=%d bet=%d", p.ledger.Balance(), p.bet)
		}
	}
}

// flushLocked credits the accumulated auto winnings in one ledger write.
func (p *Plinko) flushLocked() {
	if p.accumulated > 0 {
		p.ledger.Credit(p.accumulated, "plinko:payout")
		p.accumulated = 0
	}
}

// StartAuto begins the timed drop loop: plinkoAutoBatch balls every
// plinkoAutoInterval while the balance covers the bet.
func (p *Plinko) StartAuto() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.autoMode {
		return fmt.Errorf("%w: auto mode is not enabled", ErrInvalidAction)
	}
	if p.autoState != AutoStopped {
		return fmt.Errorf("%w: auto loop already active (%s)", ErrInvalidAction, p.autoState)
	}
	if p.ledger.Balance() < p.bet {
		return fmt.Errorf("%w: balance below bet %d", ErrInsufficientBalance, p.bet)
	}
	p.autoState = AutoRunning
	p.startLoopLocked()
	return nil
}

// StopAuto requests a stop. With balls still in flight the accumulated
// winnings are flushed only after the last one lands; already-credited
// amounts are never lost.
func (p *Plinko) StopAuto() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.autoState {
	case AutoStopped:
		return fmt.Errorf("%w: auto loop is not running", ErrInvalidAction)
	case AutoRunning, AutoPausedForFunds, AutoAwaitingPayoutThenResume:
		p.stopLoopLocked()
		if len(p.inFlight) > 0 {
			p.autoState = AutoAwaitingPayoutThenStop
		} else {
			p.flushLocked()
			p.autoState = AutoStopped
		}
	case AutoAwaitingPayoutThenStop:
		// Already winding down.
	}
	return nil
}

func (p *Plinko) startLoopLocked() {
	p.stopLoopLocked()
	stop := make(chan struct{})
	p.stopCh = stop
	p.generation++
	gen := p.generation
	go p.runAuto(stop, gen)
}

func (p *Plinko) stopLoopLocked() {
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
}

// runAuto is the ticker goroutine behind auto mode. It only ever touches
// engine state under the lock and exits as soon as its generation is
// superseded or the loop leaves AutoRunning.
func (p *Plinko) runAuto(stop <-chan struct{}, gen int) {
	ticker := time.NewTicker(plinkoAutoInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.generation != gen || p.autoState != AutoRunning {
				p.mu.Unlock()
				return
			}
			for i := 0; i < plinkoAutoBatch; i++ {
				if p.ledger.Balance() < p.bet {
					// Funding shortfall: pause, wait for the air to
					// clear, then flush and maybe resume.
					p.stopCh = nil
					if len(p.inFlight) > 0 {
						p.autoState = AutoAwaitingPayoutThenResume
					} else {
						p.autoState = AutoPausedForFunds
						p.onAllLanded()
					}
					p.mu.Unlock()
					return
				}
				ball, err := p.dropBallLocked()
				if err != nil {
					p.logger.Printf("plinko auto drop failed: %v", err)
					break
				}
				// Auto-dropped balls settle themselves; presentation
				// replays the path against the final slot.
				p.landLocked(ball.ID)
			}
			p.mu.Unlock()
		}
	}
}

// resolvePegWalk hops from the center peg of the first row down the
// lattice, one fair coin flip per row: left keeps the peg index, right
// increments it. The final peg index is the slot index.
func (p *Plinko) resolvePegWalk(stream *engine.Stream) (int, []Point) {
	idx := len(p.pegRows[0]) / 2
	path := make([]Point, 0, plinkoHops+1)
	path = append(path, Point{X: p.pegRows[0][idx], Y: p.pegRowYs[0]})

	for hop := 0; hop < plinkoHops; hop++ {
		row := p.pegRows[hop+1]
		if stream.Float() >= 0.5 {
			idx++
		}
		if idx >= len(row) {
			idx = len(row) - 1
		}
		path = append(path, Point{X: row[idx], Y: p.pegRowYs[hop+1]})
	}

	slot := idx
	if slot >= plinkoSlots {
		slot = plinkoSlots - 1
	}
	return slot, path
}

// resolvePhysics integrates a falling ball against every peg with
// randomized collision jitter, damping, a horizontal-velocity floor and
// lossy wall bounces, then resolves by horizontal position once the ball
// passes the last peg row.
func (p *Plinko) resolvePhysics(stream *engine.Stream) (int, []Point) {
	x := plinkoWidth/2 + (stream.Float()-0.5)*20
	y := p.pegRowYs[0] - 30
	vx, vy := 0.0, 0.0
	var path []Point

	const maxTicks = 100000
	for tick := 0; tick < maxTicks; tick++ {
		vy += 0.35
		vx += vx * 0.01
		vy += vy * 0.01
		x += vx
		y += vy

		for row, xs := range p.pegRows {
			py := p.pegRowYs[row]
			if math.Abs(y-py) > plinkoPegRadius+plinkoBallRadius {
				continue
			}
			for _, px := range xs {
				dx := x - px
				dy := y - py
				dist := math.Hypot(dx, dy)
				if dist >= plinkoPegRadius+plinkoBallRadius {
					continue
				}
				overlap := plinkoPegRadius + plinkoBallRadius - dist
				angle := math.Atan2(dy, dx) + (stream.Float()-0.5)*math.Pi/2
				x += math.Cos(angle) * overlap
				y += math.Sin(angle) * overlap
				speed := math.Hypot(vx, vy) * 0.6
				vx = math.Cos(angle) * speed * 0.85
				vy = math.Sin(angle) * speed
				if math.Abs(vx) < 0.95 {
					sign := 1.0
					if vx < 0 || (vx == 0 && stream.Float() < 0.5) {
						sign = -1.0
					}
					vx = 0.95 * sign
				}
			}
		}

		if x < plinkoBallRadius {
			x = plinkoBallRadius
			vx *= -0.65
		}
		if x > plinkoWidth-plinkoBallRadius {
			x = plinkoWidth - plinkoBallRadius
			vx *= -0.65
		}

		if tick%10 == 0 && len(path) < 500 {
			path = append(path, Point{X: x, Y: y})
		}

		if y > p.resolveY {
			if slot := p.slotForX(x); slot >= 0 {
				return slot, path
			}
		}
		if y > plinkoHeight+20 {
			break
		}
	}

	// Stuck or fell past the gutter without crossing a slot interval:
	// resolve by clamped horizontal position.
	return p.clampedSlotForX(x), path
}

// slotForX maps a horizontal position to its slot interval, or -1 when
// outside every interval.
func (p *Plinko) slotForX(x float64) int {
	for i := 0; i < plinkoSlots; i++ {
		if x >= p.slotEdges[i] && x < p.slotEdges[i+1] {
			return i
		}
	}
	return -1
}

func (p *Plinko) clampedSlotForX(x float64) int {
	if slot := p.slotForX(x); slot >= 0 {
		return slot
	}
	if x < p.slotEdges[0] {
		return 0
	}
	return plinkoSlots - 1
}
