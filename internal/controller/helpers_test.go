package controller

import "math"

func nan() float64 { return math.NaN() }

func roundTo2(v float64) float64 { return math.Round(v*100) / 100 }
