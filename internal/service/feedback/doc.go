// Package feedback drives the sound, vibration and screen-wake side effects
// of a presenting alert.
//
// The device facilities sit behind three small capability interfaces (Audio,
// Vibrator, Power) supplied by the host. A Handle owns the resources acquired
// for one alert session: Start acquires them at most once and Stop releases
// each of them at most once, independently of the others.
package feedback
