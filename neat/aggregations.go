package neat

import (
	"fmt"
	"math"
)

// AggregationType combines the weighted inputs arriving at a neuron.
type AggregationType func(inputs []float64) float64

// AggregationFunctions maps function names to the actual aggregation functions.
var AggregationFunctions = map[string]AggregationType{
	"sum":     AggregateSum,
	"product": AggregateProduct,
	"min":     AggregateMin,
	"max":     AggregateMax,
	"mean":    AggregateMean,
	"maxabs":  AggregateMaxAbs,
	"average": AggregateMean,
}

// GetAggregation retrieves an aggregation function by name. An empty name means sum.
func GetAggregation(name string) (AggregationType, error) {
	if name == "" {
		return AggregateSum, nil
	}
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// AggregateSum calculates the sum of the inputs.
func AggregateSum(inputs []float64) float64 { return Sum(inputs) }

// AggregateProduct multiplies the inputs. A neuron without inputs yields 0.
func AggregateProduct(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	product := 1.0
	for _, v := range inputs {
		product *= v
	}
	return product
}

// AggregateMin returns the smallest input, or 0 without inputs.
func AggregateMin(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	return MinFloat(inputs)
}

// AggregateMax returns the largest input, or 0 without inputs.
func AggregateMax(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	return MaxFloat(inputs)
}

// AggregateMean calculates the average of the inputs.
func AggregateMean(inputs []float64) float64 { return Mean(inputs) }

// AggregateMaxAbs returns the input with the largest magnitude, sign preserved.
func AggregateMaxAbs(inputs []float64) float64 {
	best := 0.0
	for _, v := range inputs {
		if math.Abs(v) > math.Abs(best) {
			best = v
		}
	}
	return best
}
