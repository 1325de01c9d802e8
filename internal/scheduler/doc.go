// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package scheduler provides cancellable timers for the fleet store.

Three building blocks share one injectable clock:

  - Scheduler.Schedule runs a callback once after a delay and returns a
    Handle. Cancelling the handle before the delay elapses guarantees the
    callback never runs.
  - Poller runs a function immediately on Start and again after every
    interval until Stop. Stop cancels the context handed to the function
    so late results can be discarded by the caller.
  - Debouncer holds at most one pending callback. Each Trigger replaces
    the previous one, so only the most recent trigger can fire.

All timers use clockz so tests drive them with a fake clock.
*/
package scheduler
