package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// GraphQLEngineSpec defines the desired state of a GraphQLEngine deployment.
type GraphQLEngineSpec struct {
	// Replicas is the number of engine pods to run. The engine is
	// stateless (metadata lives in MetadataConfigMapRef, schema caches
	// are rebuilt per pod on first request), so replicas scale freely.
	Replicas int32 `json:"replicas,omitempty"`
	// Image is the container image running cmd/engine.
	Image string `json:"image,omitempty"`
	// MetadataConfigMapRef names the ConfigMap holding the authoring
	// metadata document, mounted into each pod at the path the engine's
	// GRAPHQL_ENGINE_METADATA_PATH env var points at.
	MetadataConfigMapRef string `json:"metadataConfigMapRef,omitempty"`
	// InvalidationTopic, if set, is propagated to pods as
	// GRAPHQL_ENGINE_INVALIDATION_TOPIC. The engine consumes the topic only
	// when invalidation brokers are also configured, and this spec does not
	// set them.
	InvalidationTopic string `json:"invalidationTopic,omitempty"`
}

// GraphQLEngineStatus defines the observed state of a GraphQLEngine deployment.
type GraphQLEngineStatus struct {
	// ReadyReplicas is the number of engine pods passing /healthz.
	ReadyReplicas int32 `json:"readyReplicas"`
	// Phase is set to Running whenever the reconciler records a change in
	// ReadyReplicas; no other value is written.
	Phase string `json:"phase"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// GraphQLEngine is the Schema for the graphqlengines API.
type GraphQLEngine struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   GraphQLEngineSpec   `json:"spec,omitempty"`
	Status GraphQLEngineStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// GraphQLEngineList contains a list of GraphQLEngine.
type GraphQLEngineList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []GraphQLEngine `json:"items"`
}

func init() {
	SchemeBuilder.Register(&GraphQLEngine{}, &GraphQLEngineList{})
}
