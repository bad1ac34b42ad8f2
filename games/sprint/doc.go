// Package sprint is the design sprint game, independent of how it is shown.
//
// A player (or a team sharing one screen) receives a random design challenge
// and works through five phases:
//
//   - Empathize: write a "How might we..." statement (+20)
//   - Ideate: add ideas, at least five (+5 each), optionally against a countdown
//   - Select: pick exactly three (+20 the first time three are picked)
//   - Prototype: describe a prototype (+30)
//   - Iterate: reflect on improvements (+25)
//
// Facilitators manage the challenge library: add challenges, enable or
// disable them, export custom challenges as JSON and import them back with
// a preview that skips duplicate titles.
//
// App holds all state for one screen. Each action either applies fully or
// returns a *Notice and changes nothing, so callers can show the notice and
// carry on.
package sprint
