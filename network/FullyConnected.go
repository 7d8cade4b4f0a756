package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newfcLayer adds the learnable weights of a fully connected layer
// with inputs inputs and outputs outputs to the graph g
func newfcLayer(g *G.ExprGraph, inputs, outputs int, bias bool,
	act *Activation, init G.InitWFn, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(inputs, outputs),
		G.WithName(name+"W"),
		G.WithInit(init),
	)

	var b *G.Node
	if bias {
		b = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, outputs),
			G.WithName(name+"B"),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{weights: weights, bias: b, act: act}
}

// addfcLayers adds one fully connected layer per hidden size to the
// graph g, starting from features inputs
func addfcLayers(g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int,
	prefix string) []*fcLayer {
	layers := make([]*fcLayer, len(hiddenSizes))
	in := features
	for i := range hiddenSizes {
		name := fmt.Sprintf("%vL%v", prefix, i)
		layers[i] = newfcLayer(g, in, hiddenSizes[i], biases[i],
			activations[i], init, name)
		in = hiddenSizes[i]
	}
	return layers
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
		if err != nil {
			return nil, err
		}
	}
	if f.act == nil {
		return x, nil
	}
	return f.act.fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) *fcLayer {
	var newBias *G.Node
	if f.bias != nil {
		newBias = f.bias.CloneTo(g)
	}

	return &fcLayer{
		weights: f.weights.CloneTo(g),
		bias:    newBias,
		act:     f.act,
	}
}

// Weights returns the weight node of the layer
func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// Bias returns the bias node of the layer, or nil if the layer has
// no bias unit
func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

// GobEncode implements the gob.GobEncoder interface. Only the values of
// the weights and bias are encoded.
func (f *fcLayer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(f.weights.Value().Data().([]float64)); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode weights: %v", err)
	}

	var bias []float64
	if f.bias != nil {
		bias = f.bias.Value().Data().([]float64)
	}
	if err := enc.Encode(bias); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode bias: %v", err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The layer must
// have already been constructed with the same shape as the encoded
// layer.
func (f *fcLayer) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var weights []float64
	if err := dec.Decode(&weights); err != nil {
		return fmt.Errorf("gobdecode: could not decode weights: %v", err)
	}
	if err := letBacking(f.weights, weights); err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}

	var bias []float64
	if err := dec.Decode(&bias); err != nil {
		return fmt.Errorf("gobdecode: could not decode bias: %v", err)
	}
	if f.bias != nil {
		if err := letBacking(f.bias, bias); err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
	} else if len(bias) != 0 {
		return fmt.Errorf("gobdecode: bias encoded for layer without bias")
	}

	return nil
}

// letBacking sets the value of node to a tensor with the same shape as
// node that is backed by data
func letBacking(node *G.Node, data []float64) error {
	if len(data) != node.Shape().TotalSize() {
		return fmt.Errorf("illegal number of values for node %v "+
			"\n\twant(%v) \n\thave(%v)", node.Name(), node.Shape().TotalSize(),
			len(data))
	}
	t := tensor.New(
		tensor.WithShape(node.Shape().Clone()...),
		tensor.WithBacking(data),
	)
	return G.Let(node, t)
}
