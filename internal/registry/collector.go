package registry

// Collector is the run-scoped ordered accumulator of every container
// constructed during execution. It is threaded through one harness run and
// never shared across runs.
type Collector struct {
	containers []*Container
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector { return &Collector{} }

// Add appends a container in construction order.
func (c *Collector) Add(ct *Container) {
	c.containers = append(c.containers, ct)
}

// Len returns the number of collected containers.
func (c *Collector) Len() int { return len(c.containers) }

// Truncate discards containers collected after position n. The harness
// uses it to drop containers a failed entry point left half-built.
func (c *Collector) Truncate(n int) {
	if n >= 0 && n < len(c.containers) {
		c.containers = c.containers[:n]
	}
}

// Containers returns the collected containers in construction order.
func (c *Collector) Containers() []*Container { return c.containers }
