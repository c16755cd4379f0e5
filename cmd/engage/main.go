// Command engage collects the people who reacted to, commented on or
// reposted a post and exports them as CSV or to a webhook.
package main

func main() {
	Execute()
}
