// Package loop implements the meta-learning controller that drives the
// adaptive learning cycle: collect feedback, recognize patterns,
// generate and apply adaptations through the constitutional gate, then
// update the controller's own learning parameters.
//
// A cycle is strictly single-flight per controller instance. Cycle
// state is transactional at cycle granularity: a failure anywhere in a
// cycle leaves the learning state exactly as it was.
package loop
