// Command leavecalc distributes leave requests from the command line,
// without a server or database.
package main

func main() {
	Execute()
}
