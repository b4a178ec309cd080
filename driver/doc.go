/*
Package driver provides NETCONF client drivers.

Driver performs each operation in the calling goroutine, bounded by
Options.TimeoutOps. AsyncDriver takes a context.Context on every call
and returns as soon as it is done.

	d, err := driver.New(driver.Options{Host: "192.0.2.1", Username: "admin", Password: "secret", Transport: "ssh"})
	if err != nil {
		return err
	}
	if err := d.Open(); err != nil {
		return err
	}
	defer d.Close()
	resp, err := d.GetConfig("running")

Operations return an error only when no reply could be obtained: invalid
arguments, a missing server capability, or a transport failure. Errors
reported by the server are recorded on the returned message.Response;
call its RaiseForStatus method to treat them as an error.
*/
package driver
