package iec104

import "time"

/*
Timer management for the APCI link engine (spec §4.4). t1-t3 run on their
own time source (time.AfterFunc goroutines) rather than being polled from
the receive loop, so a timeout fires even while the socket is idle. Every
arm/disarm pair documents whether it expects mu already held, since some
call sites fire from within a locked section and others from outside one.
*/

// armT1Locked (re)arms the t1 acknowledgement timer. Caller must hold mu.
func (c *Connection) armT1Locked() {
	if c.t1 != nil {
		c.t1.Stop()
	}
	c.t1 = time.AfterFunc(c.params.T1, c.onT1Expired)
}

// armT1ForUFrame arms t1 while awaiting confirmation of a sent U-frame.
func (c *Connection) armT1ForUFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armT1Locked()
}

// disarmT1 stops the t1 timer. Caller must hold mu.
func (c *Connection) disarmT1() {
	if c.t1 != nil {
		c.t1.Stop()
		c.t1 = nil
	}
}

// onT1Expired runs on the timer's own goroutine: no acknowledgement
// arrived within T1, which spec §4.4 treats as fatal to the link.
func (c *Connection) onT1Expired() {
	c.fail(&ProtocolTimeoutError{Reason: "t1 expired awaiting acknowledgement"})
}

// armT2 arms the bounded ack-delay timer if it is not already running.
func (c *Connection) armT2() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t2 != nil {
		return
	}
	c.t2 = time.AfterFunc(c.params.T2, c.onT2Expired)
}

// disarmT2 stops the t2 timer. Caller must hold mu.
func (c *Connection) disarmT2() {
	if c.t2 != nil {
		c.t2.Stop()
		c.t2 = nil
	}
}

// onT2Expired fires when unconfirmedReceived has stayed below W for
// longer than T2: it sends the S-frame ack on the timer's own goroutine.
func (c *Connection) onT2Expired() {
	c.mu.Lock()
	c.t2 = nil
	c.mu.Unlock()
	if err := c.sendSFrame(); err != nil {
		return
	}
	c.mu.Lock()
	c.unconfirmedReceived = 0
	c.lastAckTime = time.Now()
	c.mu.Unlock()
}

// armT3 (re)arms the idle watchdog. Called after every sent or received
// frame, so it only fires after a full T3 of silence in both directions.
func (c *Connection) armT3() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t3 != nil {
		c.t3.Stop()
	}
	c.t3 = time.AfterFunc(c.params.T3, c.onT3Expired)
}

// onT3Expired issues a TESTFR_ACT keep-alive and arms t1 to wait for its
// confirmation. Idempotent: a TESTFR already outstanding is not repeated.
func (c *Connection) onT3Expired() {
	c.mu.Lock()
	already := c.testFrOutstanding
	c.testFrOutstanding = true
	c.mu.Unlock()
	if already {
		return
	}
	if err := c.sendUFrame(UFrameFunctionTestFA); err != nil {
		return
	}
	c.armT1ForUFrame()
}

// stopAllTimers stops t1-t3 during teardown. Caller must hold mu.
func (c *Connection) stopAllTimers() {
	if c.t1 != nil {
		c.t1.Stop()
		c.t1 = nil
	}
	if c.t2 != nil {
		c.t2.Stop()
		c.t2 = nil
	}
	if c.t3 != nil {
		c.t3.Stop()
		c.t3 = nil
	}
}
