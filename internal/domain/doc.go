// Package domain contains the core entities of the review scheduler: learning
// items, the card state embedded in each of them, and the transient values
// exchanged during a review session. It is independent of any store or
// transport.
package domain
