// Package ppo implements the Proximal Policy Optimization algorithm
// with a clipped surrogate objective and a Gaussian policy
package ppo

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/wangmol66/ReCoCo/buffer/rollout"
	"github.com/wangmol66/ReCoCo/environment"
	"github.com/wangmol66/ReCoCo/network"
	"github.com/wangmol66/ReCoCo/solver"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Filenames of the networks saved by PPO.Save
const (
	PolicyFile = "ppo_policy.gob"
	ValueFile  = "ppo_value.gob"
)

// PPO implements Proximal Policy Optimization with a clipped
// surrogate objective. This implementation is adapted from:
//
// https://spinningup.openai.com/en/latest/algorithms/ppo.html
//
// The policy is Gaussian with a fixed standard deviation and a mean
// predicted by an MLP whose output is squashed by a tanh. Actions are
// sampled from the behaviour policy, which has a batch size of 1.
// Updates are performed on separate training networks with a batch
// size equal to the rollout window. After each update, the weights of
// the training networks are copied to the behaviour networks.
type PPO struct {
	actionDims int
	features   int
	std        float64
	batchSize  int
	epochs     int
	eval       bool

	normal distuv.Normal

	// Behaviour policy
	behaviour   network.NeuralNet
	behaviourVM G.VM
	meanVal     G.Value

	// Policy that is learned
	trainPolicy       network.NeuralNet
	trainPolicyVM     G.VM
	trainPolicySolver *solver.Solver
	actions           *G.Node
	oldLogProb        *G.Node
	advantages        *G.Node
	policyLossVal     G.Value

	// State value critic
	valueFn             network.NeuralNet
	valueVM             G.VM
	trainValueFn        network.NeuralNet
	trainValueFnVM      G.VM
	trainValueFnTargets *G.Node
	trainValueFnSolver  *solver.Solver
	valueLossVal        G.Value
}

// New creates and returns a new PPO agent
func New(env environment.Environment, c Config, seed uint64) (*PPO, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()
	init := c.InitWFn.InitWFn()

	// Create the behaviour policy
	behaviour, err := network.NewMultiHeadMLP(features, 1, actionDims,
		G.NewGraph(), c.PolicyLayers, c.PolicyBiases, init,
		c.PolicyActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy: %v", err)
	}
	p := &PPO{
		actionDims: actionDims,
		features:   features,
		std:        c.ExplorationParam,
		batchSize:  c.BatchSize,
		epochs:     c.Epochs,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
		behaviour:          behaviour,
		trainPolicySolver:  c.PolicySolver.Clone(),
		trainValueFnSolver: c.ValueSolver.Clone(),
	}
	mean := G.Must(G.Tanh(behaviour.Prediction()[0]))
	G.Read(mean, &p.meanVal)
	p.behaviourVM = G.NewTapeMachine(behaviour.Graph())

	// Create the training policy and its clipped surrogate loss
	p.trainPolicy, err = behaviour.CloneWithBatch(c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create training policy: %v",
			err)
	}
	policyLoss := p.surrogateLoss(c.Clip)
	G.Read(policyLoss, &p.policyLossVal)
	if _, err := G.Grad(policyLoss, p.trainPolicy.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute policy gradient: %v",
			err)
	}
	p.trainPolicyVM = G.NewTapeMachine(p.trainPolicy.Graph(),
		G.BindDualValues(p.trainPolicy.Learnables()...))

	// Create the prediction value function
	p.valueFn, err = network.NewSingleHeadMLP(features, 1, G.NewGraph(),
		c.ValueLayers, c.ValueBiases, init, c.ValueActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create value function: %v",
			err)
	}
	p.valueVM = G.NewTapeMachine(p.valueFn.Graph())

	// Create the training value function
	p.trainValueFn, err = p.valueFn.CloneWithBatch(c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create training value "+
			"function: %v", err)
	}
	p.trainValueFnTargets = G.NewMatrix(
		p.trainValueFn.Graph(),
		tensor.Float64,
		G.WithShape(p.trainValueFn.Prediction()[0].Shape()...),
		G.WithName("Value Function Update Target"),
		G.WithInit(G.Zeroes()),
	)
	valueLoss := G.Must(G.Sub(p.trainValueFn.Prediction()[0],
		p.trainValueFnTargets))
	valueLoss = G.Must(G.Square(valueLoss))
	valueLoss = G.Must(G.Mean(valueLoss))
	G.Read(valueLoss, &p.valueLossVal)
	if _, err := G.Grad(valueLoss, p.trainValueFn.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute value gradient: %v",
			err)
	}
	p.trainValueFnVM = G.NewTapeMachine(p.trainValueFn.Graph(),
		G.BindDualValues(p.trainValueFn.Learnables()...))

	return p, nil
}

// surrogateLoss adds the negated clipped surrogate objective to the
// graph of the training policy and returns the node holding it:
//
//	L = -mean(min(r A, clip(r, 1 - ε, 1 + ε) A))
//
// where r = exp(log π(a|s) - log π_old(a|s)).
func (p *PPO) surrogateLoss(epsilon float64) *G.Node {
	g := p.trainPolicy.Graph()
	p.actions = G.NewMatrix(
		g,
		tensor.Float64,
		G.WithName("Actions"),
		G.WithShape(p.batchSize, p.actionDims),
		G.WithInit(G.Zeroes()),
	)
	p.oldLogProb = G.NewVector(
		g,
		tensor.Float64,
		G.WithName("OldLogProb"),
		G.WithShape(p.batchSize),
		G.WithInit(G.Zeroes()),
	)
	p.advantages = G.NewVector(
		g,
		tensor.Float64,
		G.WithName("Advantages"),
		G.WithShape(p.batchSize),
		G.WithInit(G.Zeroes()),
	)

	mean := G.Must(G.Tanh(p.trainPolicy.Prediction()[0]))
	logProb := p.logPdf(mean, p.actions)

	ratio := G.Must(G.Sub(logProb, p.oldLogProb))
	ratio = G.Must(G.Exp(ratio))

	// clip(r, lo, hi) = lo + relu(r - lo) - relu(r - hi)
	lo := G.NewConstant(1-epsilon, G.WithName("ClipLow"))
	hi := G.NewConstant(1+epsilon, G.WithName("ClipHigh"))
	aboveLo := G.Must(G.Rectify(G.Must(G.Sub(ratio, lo))))
	aboveHi := G.Must(G.Rectify(G.Must(G.Sub(ratio, hi))))
	clipped := G.Must(G.Add(lo, G.Must(G.Sub(aboveLo, aboveHi))))

	surr1 := G.Must(G.HadamardProd(ratio, p.advantages))
	surr2 := G.Must(G.HadamardProd(clipped, p.advantages))

	// min(x, y) = x - relu(x - y)
	diff := G.Must(G.Sub(surr1, surr2))
	surr := G.Must(G.Sub(surr1, G.Must(G.Rectify(diff))))

	loss := G.Must(G.Mean(surr))
	return G.Must(G.Neg(loss))
}

// logPdf adds nodes to the computational graph of mean for computing
// the log probability of actions under a Gaussian policy with mean
// mean and the policy's fixed standard deviation. The result is a
// vector with one log probability per row of actions.
func (p *PPO) logPdf(mean, actions *G.Node) *G.Node {
	invStd := G.NewConstant(1/p.std, G.WithName("InvStd"))
	negativeHalf := G.NewConstant(-0.5)
	norm := G.NewConstant(float64(p.actionDims)*
		(math.Log(p.std)+0.5*math.Log(2*math.Pi)), G.WithName("LogNorm"))

	exponent := G.Must(G.Sub(actions, mean))
	exponent = G.Must(G.Mul(exponent, invStd))
	exponent = G.Must(G.Square(exponent))
	exponent = G.Must(G.Sum(exponent, 1))
	exponent = G.Must(G.Mul(exponent, negativeHalf))

	return G.Must(G.Sub(exponent, norm))
}

// logPdfOf returns the log probability of action under a Gaussian
// policy with mean mean and the policy's fixed standard deviation
func (p *PPO) logPdfOf(mean, action []float64) float64 {
	var logProb float64
	for i := range action {
		z := (action[i] - mean[i]) / p.std
		logProb += -0.5*z*z - math.Log(p.std) - 0.5*math.Log(2*math.Pi)
	}
	return logProb
}

// SelectAction returns an action in the state described by obs. In
// training mode the action is sampled from the Gaussian policy and, if
// r is non-nil, a single rollout.Record of the selection is stored in
// r. In evaluation mode the mean action is returned.
func (p *PPO) SelectAction(obs mat.Vector,
	r rollout.Recorder) (*mat.VecDense, error) {
	o := vecData(obs)
	mean, err := p.policyMean(o)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}

	action := make([]float64, p.actionDims)
	if p.eval {
		copy(action, mean)
	} else {
		for i := range action {
			action[i] = mean[i] + p.std*p.normal.Rand()
		}
	}

	if r != nil {
		value, err := p.Value(obs)
		if err != nil {
			return nil, fmt.Errorf("selectAction: %v", err)
		}
		record := rollout.Record{
			Observation: o,
			Action:      action,
			LogProb:     p.logPdfOf(mean, action),
			Value:       value,
		}
		if err := r.Record(record); err != nil {
			return nil, fmt.Errorf("selectAction: could not record: %v", err)
		}
	}

	return mat.NewVecDense(p.actionDims, append([]float64(nil), action...)),
		nil
}

// policyMean returns the mean of the behaviour policy in state obs
func (p *PPO) policyMean(obs []float64) ([]float64, error) {
	if err := p.behaviour.SetInput(obs); err != nil {
		return nil, err
	}
	defer p.behaviourVM.Reset()
	if err := p.behaviourVM.RunAll(); err != nil {
		return nil, err
	}

	mean := p.meanVal.Data().([]float64)
	out := make([]float64, len(mean))
	copy(out, mean)
	return out, nil
}

// Value returns the state value estimate of obs
func (p *PPO) Value(obs mat.Vector) (float64, error) {
	if err := p.valueFn.SetInput(vecData(obs)); err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}
	defer p.valueVM.Reset()
	if err := p.valueVM.RunAll(); err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}

	v := p.valueFn.Output()[0].Data().([]float64)
	if len(v) != 1 {
		return 0, fmt.Errorf("value: multiple values predicted for state " +
			"value")
	}
	return v[0], nil
}

// Update performs Epochs gradient steps on the clipped surrogate
// objective and the value function loss using the rollout window in b,
// then copies the learned weights to the behaviour networks. The
// returned losses are averaged over all gradient steps.
func (p *PPO) Update(b *rollout.Buffer, last mat.Vector) (float64, float64,
	error) {
	if p.eval {
		return 0, 0, fmt.Errorf("update: cannot update in evaluation mode")
	}
	if b.Len() != p.batchSize {
		return 0, 0, fmt.Errorf("update: illegal rollout window size "+
			"\n\twant(%v) \n\thave(%v)", p.batchSize, b.Len())
	}
	if last != nil && last.Len() != p.features {
		return 0, 0, fmt.Errorf("update: illegal last observation size "+
			"\n\twant(%v) \n\thave(%v)", p.features, last.Len())
	}

	obs, act, logProb, adv, ret, err := b.Get()
	if err != nil {
		return 0, 0, fmt.Errorf("update: %v", err)
	}

	var policyLoss, valueLoss float64
	for i := 0; i < p.epochs; i++ {
		l, err := p.policyStep(obs, act, logProb, adv)
		if err != nil {
			return 0, 0, fmt.Errorf("update: policy step %v: %v", i, err)
		}
		policyLoss += l

		l, err = p.valueStep(obs, ret)
		if err != nil {
			return 0, 0, fmt.Errorf("update: value step %v: %v", i, err)
		}
		valueLoss += l
	}

	// Update behaviour policy and prediction value funcion
	if err := p.behaviour.Set(p.trainPolicy); err != nil {
		return 0, 0, fmt.Errorf("update: could not set behaviour: %v", err)
	}
	if err := p.valueFn.Set(p.trainValueFn); err != nil {
		return 0, 0, fmt.Errorf("update: could not set value function: %v",
			err)
	}

	n := float64(p.epochs)
	return policyLoss / n, valueLoss / n, nil
}

// policyStep takes a single gradient step on the clipped surrogate
// objective and returns the loss before the step
func (p *PPO) policyStep(obs, act, logProb, adv []float64) (float64, error) {
	if err := p.trainPolicy.SetInput(obs); err != nil {
		return 0, err
	}
	if err := letVec(p.actions, act); err != nil {
		return 0, err
	}
	if err := letVec(p.oldLogProb, logProb); err != nil {
		return 0, err
	}
	if err := letVec(p.advantages, adv); err != nil {
		return 0, err
	}

	defer p.trainPolicyVM.Reset()
	if err := p.trainPolicyVM.RunAll(); err != nil {
		return 0, err
	}
	if err := p.trainPolicySolver.Step(p.trainPolicy.Model()); err != nil {
		return 0, err
	}
	return p.policyLossVal.Data().(float64), nil
}

// valueStep takes a single gradient step on the mean squared error
// between the value function and the returns, returning the loss
// before the step
func (p *PPO) valueStep(obs, ret []float64) (float64, error) {
	if err := p.trainValueFn.SetInput(obs); err != nil {
		return 0, err
	}
	if err := letVec(p.trainValueFnTargets, ret); err != nil {
		return 0, err
	}

	defer p.trainValueFnVM.Reset()
	if err := p.trainValueFnVM.RunAll(); err != nil {
		return 0, err
	}
	if err := p.trainValueFnSolver.Step(p.trainValueFn.Model()); err != nil {
		return 0, err
	}
	return p.valueLossVal.Data().(float64), nil
}

// Eval sets the agent into evaluation mode
func (p *PPO) Eval() { p.eval = true }

// Train sets the agent into training mode
func (p *PPO) Train() { p.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (p *PPO) IsEval() bool { return p.eval }

// Save saves the behaviour policy and value function into dir
func (p *PPO) Save(dir string) error {
	if err := network.Save(p.behaviour, filepath.Join(dir, PolicyFile)); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := network.Save(p.valueFn, filepath.Join(dir, ValueFile)); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Load loads a policy and value function saved with Save from dir.
// The saved networks must have the same architecture as the agent's.
func (p *PPO) Load(dir string) error {
	policy, err := network.Load(filepath.Join(dir, PolicyFile))
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}
	value, err := network.Load(filepath.Join(dir, ValueFile))
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}

	for _, dest := range []network.NeuralNet{p.behaviour, p.trainPolicy} {
		if err := dest.Set(policy); err != nil {
			return fmt.Errorf("load: could not set policy: %v", err)
		}
	}
	for _, dest := range []network.NeuralNet{p.valueFn, p.trainValueFn} {
		if err := dest.Set(value); err != nil {
			return fmt.Errorf("load: could not set value function: %v", err)
		}
	}
	return nil
}

// Close closes all VMs used by the agent
func (p *PPO) Close() error {
	for _, vm := range []G.VM{p.behaviourVM, p.trainPolicyVM, p.valueVM,
		p.trainValueFnVM} {
		if err := vm.Close(); err != nil {
			return err
		}
	}
	return nil
}

// letVec binds a copy of data to node
func letVec(node *G.Node, data []float64) error {
	if len(data) != node.Shape().TotalSize() {
		return fmt.Errorf("illegal number of values for %v \n\twant(%v) "+
			"\n\thave(%v)", node.Name(), node.Shape().TotalSize(), len(data))
	}
	backing := make([]float64, len(data))
	copy(backing, data)
	t := tensor.New(
		tensor.WithShape(node.Shape().Clone()...),
		tensor.WithBacking(backing),
	)
	return G.Let(node, t)
}

// vecData returns a copy of the elements of v
func vecData(v mat.Vector) []float64 {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
