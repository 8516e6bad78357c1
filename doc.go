// Package sagarun is a cooperative, effect-driven task runtime.
//
// A caller writes a procedure — a plain Go function that receives a Yield
// callback — and issues declarative effect descriptors through it: Take,
// Put, Call, CPS, Fork, Spawn, Join, Cancel, Select, All, Race,
// ActionChannel, Flush, Cancelled, GetContext, SetContext. The runtime
// interprets each effect: it suspends the procedure, performs the effect,
// and resumes the procedure with a value or an error, while tracking the
// forest of child procedures the effects create.
//
// Constructors
//   - Run(ctx, fn, opts...): starts a procedure as the root of a new task
//     tree and returns its Task handle immediately.
//   - NewMiddleware(store, opts...): wires root sagas to a store-like host;
//     its Dispatch feeds actions onto the sagas' shared StdChannel.
//
// Channels
// StdChannel is the multicast channel shared by every concurrently running
// procedure in a tree started from the same Run call. The library never
// closes channels it did not create for you; Task.Cancel and context
// cancellation are the two ways to tear a tree down.
//
// Pools
//   - Dynamic concurrency governor (default): forked/spawned procedures run
//     without a concurrency cap.
//   - Fixed concurrency governor (WithMaxConcurrency): caps the number of
//     concurrently running forked/spawned procedures.
package sagarun
