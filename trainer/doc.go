// Package trainer trains a hashtron network on batches of images. Every step
// retrains a single hashtron from the votes of one batch and keeps it only
// when the batch loss does not grow; no backpropagation or floating point
// arithmetic is involved.
package trainer
