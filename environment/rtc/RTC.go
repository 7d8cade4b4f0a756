// Package rtc implements a trace-driven simulation of a real time
// communication sender whose bitrate is controlled by an agent
package rtc

import (
	"fmt"
	"math"

	"github.com/wangmol66/ReCoCo/environment"
	"github.com/wangmol66/ReCoCo/environment/trace"
	"github.com/wangmol66/ReCoCo/timestep"
	"github.com/wangmol66/ReCoCo/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// Bandwidth bounds and dimensions of the environment
const (
	MinBandwidth float64 = 10   // kbps
	MaxBandwidth float64 = 8000 // kbps

	MinAction float64 = -1.0
	MaxAction float64 = 1.0

	ObservationDims int = 4
	ActionDims      int = 1
)

// PacketRecord records what happened to the media sent over a single
// step of a trace
type PacketRecord struct {
	TimeMs      float64 // Time at the end of the step
	SendRate    float64 // kbps, the bandwidth estimate selected
	ReceiveRate float64 // kbps
	Capacity    float64 // kbps, the capacity of the link
	DelayMs     float64 // One way delay
	LossRatio   float64
}

// RTC implements a simulated RTC uplink following a network trace. On
// each step the agent's action is converted into a bandwidth estimate
// which the sender uses as its sending rate for the next step. Media is
// queued at a bottleneck which drains at the trace's capacity. Media
// which overflows the bottleneck queue is lost, as are packets dropped
// at the trace's random loss ratio.
//
// Actions are continuous and 1-dimensional in [-1, 1] and are mapped
// on a logarithmic scale to bandwidth estimates in [MinBandwidth,
// MaxBandwidth]. Actions outside of this region are clipped.
//
// Observations consist of the log-normalised receiving rate, the one
// way delay in seconds, the loss ratio, and the log-normalised
// bandwidth estimate of the previous step. The reward on each step is
// the normalised receiving rate minus the delay and the loss ratio.
//
// A trace ends once its full duration has been simulated, or when the
// step limit of the environment is reached.
type RTC struct {
	config  Config
	sampler *trace.Sampler
	ender   environment.StepLimit

	actionBounds r1.Interval
	rng          rand.Source

	current  *trace.Trace
	nowMs    float64
	queue    float64 // kbits waiting at the bottleneck
	lastStep timestep.TimeStep
	done     bool

	log []PacketRecord
}

// New creates and returns a new RTC environment which runs traces
// chosen by sampler
func New(c Config, sampler *trace.Sampler, seed uint64) (*RTC, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if sampler == nil {
		return nil, fmt.Errorf("new: a trace sampler is required")
	}

	return &RTC{
		config:       c,
		sampler:      sampler,
		ender:        environment.NewStepLimit(c.MaxSteps),
		actionBounds: r1.Interval{Min: MinAction, Max: MaxAction},
		rng:          rand.NewSource(seed),
		done:         true,
	}, nil
}

// Reset starts a new trace and returns the first TimeStep in it. No
// simulation state is carried over from the previous trace.
func (r *RTC) Reset(training bool) (timestep.TimeStep, error) {
	r.current = r.sampler.Sample(training)
	r.nowMs = 0
	r.queue = 0
	r.done = false

	obs := mat.NewVecDense(ObservationDims, nil)
	r.lastStep = timestep.New(timestep.First, 0, r.config.Discount, obs, 0)
	return r.lastStep, nil
}

// Step takes one step of StepMs milliseconds in the current trace
func (r *RTC) Step(action mat.Vector) (timestep.TimeStep, bool, error) {
	if r.done {
		return timestep.TimeStep{}, true, fmt.Errorf("step: trace has " +
			"ended, environment must be reset")
	}
	if action.Len() != ActionDims {
		return timestep.TimeStep{}, false, fmt.Errorf("step: illegal action "+
			"dimensions \n\twant(%v) \n\thave(%v)", ActionDims, action.Len())
	}

	estimate := ActionToBandwidth(
		floatutils.ClipInterval(action.AtVec(0), r.actionBounds))
	record := r.transmit(estimate)
	r.log = append(r.log, record)

	obs := mat.NewVecDense(ObservationDims, []float64{
		NormaliseBandwidth(record.ReceiveRate),
		record.DelayMs / 1000,
		record.LossRatio,
		NormaliseBandwidth(estimate),
	})
	reward := obs.AtVec(0) - obs.AtVec(1) - obs.AtVec(2)

	nextStep := timestep.New(timestep.Mid, reward, r.config.Discount, obs,
		r.lastStep.Number+1)
	if r.nowMs >= r.current.Duration() {
		nextStep.StepType = timestep.Last
	}
	r.ender.End(&nextStep)

	r.lastStep = nextStep
	r.done = nextStep.Last()
	return nextStep, r.done, nil
}

// transmit simulates sending at rate kbps for a single step and
// advances the simulation clock
func (r *RTC) transmit(rate float64) PacketRecord {
	pattern := r.current.At(r.nowMs)
	dt := r.config.StepMs / 1000

	// Random loss on the link, sampled per packet
	sent := rate * dt
	packetKbits := r.config.PacketBytes * 8 / 1000
	var randomLoss float64
	if packets := math.Floor(sent / packetKbits); packets > 0 &&
		pattern.Loss > 0 {
		lost := distuv.Binomial{N: packets, P: pattern.Loss, Src: r.rng}
		randomLoss = lost.Rand() * packetKbits
	}

	// Drain the bottleneck at link capacity, dropping overflow
	r.queue += sent - randomLoss
	drained := math.Min(r.queue, pattern.Capacity*dt)
	r.queue -= drained
	limit := pattern.Capacity * r.config.QueueMs / 1000
	overflow := math.Max(0, r.queue-limit)
	r.queue -= overflow

	var lossRatio float64
	if sent > 0 {
		lossRatio = floatutils.Clip((randomLoss+overflow)/sent, 0, 1)
	}

	queueingDelay := r.config.QueueMs
	if pattern.Capacity > 0 {
		queueingDelay = r.queue / pattern.Capacity * 1000
	}
	var jitter float64
	if pattern.Jitter > 0 {
		j := distuv.Normal{Mu: 0, Sigma: pattern.Jitter, Src: r.rng}
		jitter = math.Abs(j.Rand())
	}

	r.nowMs += r.config.StepMs

	return PacketRecord{
		TimeMs:      r.nowMs,
		SendRate:    rate,
		ReceiveRate: drained / dt,
		Capacity:    pattern.Capacity,
		DelayMs:     pattern.RTT/2 + queueingDelay + jitter,
		LossRatio:   lossRatio,
	}
}

// ClearTrajectoryLog discards the log of the current trajectory
func (r *RTC) ClearTrajectoryLog() {
	r.log = r.log[:0]
}

// TrajectoryLog returns the records of each step taken since the log
// was last cleared
func (r *RTC) TrajectoryLog() []PacketRecord {
	return r.log
}

// Trace returns the trace currently being simulated
func (r *RTC) Trace() *trace.Trace {
	return r.current
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (r *RTC) LastTimeStep() timestep.TimeStep {
	return r.lastStep
}

// ObservationSpec returns the observation specification of the
// environment
func (r *RTC) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims, nil)
	upperBound := mat.NewVecDense(ObservationDims, []float64{
		1,
		math.Inf(1),
		1,
		1,
	})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (r *RTC) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{MinAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{MaxAction})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}

// String converts the environment to a string representation
func (r *RTC) String() string {
	name := "none"
	if r.current != nil {
		name = r.current.Name
	}
	return fmt.Sprintf("RTC  |  trace: %v  |  time: %vms  |  queue: %.2fkbit",
		name, r.nowMs, r.queue)
}

// ActionToBandwidth maps an action in [-1, 1] to a bandwidth estimate
// in kbps on a logarithmic scale
func ActionToBandwidth(a float64) float64 {
	lo, hi := math.Log(MinBandwidth), math.Log(MaxBandwidth)
	frac := (floatutils.Clip(a, MinAction, MaxAction) - MinAction) /
		(MaxAction - MinAction)
	return math.Exp(lo + frac*(hi-lo))
}

// BandwidthToAction is the inverse of ActionToBandwidth
func BandwidthToAction(kbps float64) float64 {
	return NormaliseBandwidth(kbps)*(MaxAction-MinAction) + MinAction
}

// NormaliseBandwidth maps a bandwidth in kbps to [0, 1] on a
// logarithmic scale. Bandwidths outside of [MinBandwidth,
// MaxBandwidth] are clipped.
func NormaliseBandwidth(kbps float64) float64 {
	kbps = floatutils.Clip(kbps, MinBandwidth, MaxBandwidth)
	lo, hi := math.Log(MinBandwidth), math.Log(MaxBandwidth)
	return (math.Log(kbps) - lo) / (hi - lo)
}
