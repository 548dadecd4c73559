// Command kcorectl exercises the kernel heap and wait channels from the shell:
// it runs allocation scripts, compares placement strategies and drives a
// producer/consumer workload on the scheduler simulator.
package main

func main() {
	execute()
}
