/*
Package push feeds upcoming-event lists to an external display device.

A Pusher reads the display pipeline of a lookahead.Engine and maps its events onto the device's
setters: speed limits and grade changes become track items, junctions become routing items, and
the lowest limit under the consist becomes the device's speed limit.
*/
package push
