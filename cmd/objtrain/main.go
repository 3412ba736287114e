// Command objtrain trains a hashtron image classifier on a dataset kept in an
// S3-compatible object store and uploads the model next to it.
package main

func main() {
	Execute()
}
