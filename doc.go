/*
Package auditraq listens to audio, tracks the beat and broadcasts it.

Concept

The system is a chain of loosely coupled units:

    FrameSource - the origin of audio frames (soundcard or wav file);
    TempoDetector - finds beats in a mono signal;
    Engine - estimates BPM, clock skew and the next beat;
    Clock - emits evenly spaced "cleaned" beats;
    Dispatcher - ships queued events in bundles over a Transport.

Engine and Clock push events into a shared queue, Dispatcher drains it
without ever waiting for new events. All units share a single shutdown
signal and stop together.

Messages

Every event is an address with positional arguments:

    /beat/raw      wall-clock ms of an unfiltered beat (string)
    /beat/cleaned  wall-clock ms of a clock-smoothed beat (string)
    /bpm           current BPM estimate (float)
    /next_beat     wall-clock ms of the predicted beat (string)
    /latency       "{actual} {actual-expected}" prediction sample (string)

The osc package sends bundles of these events over UDP. The mqtt package
can mirror them to a broker.
*/
package auditraq
