package model

// SensorKind names a sensor type accepted by the reading store.
type SensorKind string

const (
	SensorTemperature SensorKind = "temperature"
)
