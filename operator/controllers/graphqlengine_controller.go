package controllers

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	enginev1alpha1 "github.com/lumadb/graphql-engine/operator/api/v1alpha1"
)

// GraphQLEngineReconciler reconciles a GraphQLEngine object into a plain
// Deployment (the engine is stateless). The Deployment is created from the
// full spec; after creation only the replica count is kept in sync, and
// changes to Image, MetadataConfigMapRef or InvalidationTopic are not
// applied to an existing Deployment.
type GraphQLEngineReconciler struct {
	client.Client
	Scheme *runtime.Scheme
}

// +kubebuilder:rbac:groups=graphql.lumadb.io,resources=graphqlengines,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=graphql.lumadb.io,resources=graphqlengines/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=apps,resources=deployments,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=core,resources=services,verbs=get;list;watch;create;update;patch;delete

func (r *GraphQLEngineReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	l := log.FromContext(ctx)

	engine := &enginev1alpha1.GraphQLEngine{}
	if err := r.Get(ctx, req.NamespacedName, engine); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		l.Error(err, "failed to get GraphQLEngine")
		return ctrl.Result{}, err
	}

	deploy := r.deploymentForEngine(engine)

	found := &appsv1.Deployment{}
	err := r.Get(ctx, client.ObjectKey{Name: deploy.Name, Namespace: deploy.Namespace}, found)
	if err != nil && errors.IsNotFound(err) {
		l.Info("creating engine deployment", "Deployment.Namespace", deploy.Namespace, "Deployment.Name", deploy.Name)
		if err := r.Create(ctx, deploy); err != nil {
			l.Error(err, "failed to create engine deployment")
			return ctrl.Result{}, err
		}
		return ctrl.Result{Requeue: true}, nil
	} else if err != nil {
		l.Error(err, "failed to get engine deployment")
		return ctrl.Result{}, err
	}

	if *found.Spec.Replicas != engine.Spec.Replicas {
		found.Spec.Replicas = &engine.Spec.Replicas
		if err := r.Update(ctx, found); err != nil {
			l.Error(err, "failed to scale engine deployment")
			return ctrl.Result{}, err
		}
		return ctrl.Result{Requeue: true}, nil
	}

	if found.Status.ReadyReplicas != engine.Status.ReadyReplicas {
		engine.Status.ReadyReplicas = found.Status.ReadyReplicas
		engine.Status.Phase = "Running"
		if err := r.Status().Update(ctx, engine); err != nil {
			l.Error(err, "failed to update GraphQLEngine status")
			return ctrl.Result{}, err
		}
	}

	return ctrl.Result{}, nil
}

func (r *GraphQLEngineReconciler) deploymentForEngine(e *enginev1alpha1.GraphQLEngine) *appsv1.Deployment {
	labels := map[string]string{"app": "graphql-engine", "engine_cr": e.Name}
	replicas := e.Spec.Replicas

	env := []corev1.EnvVar{
		{Name: "GRAPHQL_ENGINE_METADATA_PATH", Value: "/etc/graphql-engine/metadata.json"},
	}
	if e.Spec.InvalidationTopic != "" {
		env = append(env, corev1.EnvVar{Name: "GRAPHQL_ENGINE_INVALIDATION_TOPIC", Value: e.Spec.InvalidationTopic})
	}

	volumes := []corev1.Volume{}
	mounts := []corev1.VolumeMount{}
	if e.Spec.MetadataConfigMapRef != "" {
		volumes = append(volumes, corev1.Volume{
			Name: "metadata",
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: e.Spec.MetadataConfigMapRef},
				},
			},
		})
		mounts = append(mounts, corev1.VolumeMount{Name: "metadata", MountPath: "/etc/graphql-engine"})
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      e.Name + "-engine",
			Namespace: e.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Volumes: volumes,
					Containers: []corev1.Container{{
						Name:         "engine",
						Image:        e.Spec.Image,
						Env:          env,
						VolumeMounts: mounts,
						Ports: []corev1.ContainerPort{
							{ContainerPort: 8080, Name: "http"},
						},
						ReadinessProbe: &corev1.Probe{
							ProbeHandler: corev1.ProbeHandler{
								HTTPGet: &corev1.HTTPGetAction{Path: "/healthz", Port: intstr.FromInt(8080)},
							},
						},
					}},
				},
			},
		},
	}
}

func (r *GraphQLEngineReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&enginev1alpha1.GraphQLEngine{}).
		Owns(&appsv1.Deployment{}).
		Complete(r)
}
